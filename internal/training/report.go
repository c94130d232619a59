package training

import (
	"github.com/Alias1177/futures-analyzer/internal/ml"
	"github.com/Alias1177/futures-analyzer/internal/model"
)

func evaluate(m *TrainedModel, testX [][]float64, testY, trainY []int) model.EvaluationReport {
	k := len(m.Classes)
	predicted := make([]int, len(testX))
	for i, row := range testX {
		predicted[i] = ml.Predict(m.Classifier, row)
	}

	report := Report(m.Classes, testY, predicted)
	report.ModelType = string(m.Kind)
	report.Features = m.Features
	report.TrainSize = len(trainY)
	report.TrainCounts = make(map[model.Target]int, k)
	for _, c := range trainY {
		report.TrainCounts[m.Classes[c]]++
	}
	return report
}

// Report scores predicted against actual class indices: accuracy, confusion
// matrix (rows actual, columns predicted) and per-class precision, recall and F1.
func Report(classes []model.Target, actual, predicted []int) model.EvaluationReport {
	k := len(classes)
	report := model.EvaluationReport{
		TestSize:   len(actual),
		Classes:    classes,
		Confusion:  make([][]int, k),
		TestCounts: make(map[model.Target]int, k),
	}
	for i := range report.Confusion {
		report.Confusion[i] = make([]int, k)
	}

	correct := 0
	for i, a := range actual {
		report.Confusion[a][predicted[i]]++
		report.TestCounts[classes[a]]++
		if a == predicted[i] {
			correct++
		}
	}
	if len(actual) > 0 {
		report.Accuracy = float64(correct) / float64(len(actual))
	}

	var f1Sum float64
	for c := 0; c < k; c++ {
		tp := report.Confusion[c][c]
		var predictedAs, support int
		for j := 0; j < k; j++ {
			predictedAs += report.Confusion[j][c]
			support += report.Confusion[c][j]
		}
		m := model.ClassMetrics{Class: classes[c], Support: support}
		if predictedAs > 0 {
			m.Precision = float64(tp) / float64(predictedAs)
		}
		if support > 0 {
			m.Recall = float64(tp) / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		f1Sum += m.F1
		report.PerClass = append(report.PerClass, m)
	}
	if k > 0 {
		report.MacroF1 = f1Sum / float64(k)
	}
	return report
}
