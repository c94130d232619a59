package technical

// CalculateVolumeRatio calculates the volume moving average and volume / average.
// The ratio is NaN where the average is zero or not yet defined.
func CalculateVolumeRatio(volumes []float64, period int) ([]float64, []float64) {
	volumeMA := CalculateSMA(volumes, period)
	ratio := undefinedSeries(len(volumes))
	for i, v := range volumes {
		if !IsDefined(volumeMA[i]) || volumeMA[i] == 0 {
			continue
		}
		ratio[i] = v / volumeMA[i]
	}
	return volumeMA, ratio
}
