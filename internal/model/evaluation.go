package model

// ClassMetrics holds precision/recall figures for one class
type ClassMetrics struct {
	Class     Target  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// EvaluationReport stores held-out evaluation results of a trained model
type EvaluationReport struct {
	ModelType   string         `json:"model_type"`
	Features    []string       `json:"features"`
	TrainSize   int            `json:"train_size"`
	TestSize    int            `json:"test_size"`
	Accuracy    float64        `json:"accuracy"`
	Classes     []Target       `json:"classes"`
	Confusion   [][]int        `json:"confusion_matrix"` // rows = actual, cols = predicted
	PerClass    []ClassMetrics `json:"per_class"`
	MacroF1     float64        `json:"macro_f1"`
	TrainCounts map[Target]int `json:"train_counts"`
	TestCounts  map[Target]int `json:"test_counts"`
}
