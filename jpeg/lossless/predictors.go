package lossless

// Predictor computes the predicted sample value for one of the seven
// lossless predictors. ra, rb and rc are the left, above and above-left
// neighbors.
func Predictor(sel int, ra, rb, rc int) int {
	switch sel {
	case 1:
		return ra
	case 2:
		return rb
	case 3:
		return rc
	case 4:
		return ra + rb - rc
	case 5:
		return ra + ((rb - rc) >> 1)
	case 6:
		return rb + ((ra - rc) >> 1)
	case 7:
		return (ra + rb) >> 1
	default:
		return ra
	}
}

// PredictorName returns a human-readable name for a predictor.
func PredictorName(sel int) string {
	switch sel {
	case 1:
		return "Left (Ra)"
	case 2:
		return "Above (Rb)"
	case 3:
		return "Above-Left (Rc)"
	case 4:
		return "Ra + Rb - Rc"
	case 5:
		return "Ra + ((Rb - Rc) >> 1)"
	case 6:
		return "Rb + ((Ra - Rc) >> 1)"
	case 7:
		return "(Ra + Rb) / 2"
	default:
		return "Unknown"
	}
}

// SelectBestPredictor picks the predictor with the lowest prediction
// error variance over the given component sample planes (row-major,
// width*height each). Lower variance correlates with shorter difference
// codes.
func SelectBestPredictor(samples [][]uint16, width, height int) int {
	best := 1
	minVariance := int64(1) << 62

	for sel := 1; sel <= 7; sel++ {
		v := predictionVariance(samples, width, height, sel)
		if v < minVariance {
			minVariance = v
			best = sel
		}
	}
	return best
}

func predictionVariance(samples [][]uint16, width, height, sel int) int64 {
	var sumSquares int64
	count := 0

	for _, comp := range samples {
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				var ra, rb, rc int
				if col > 0 {
					ra = int(comp[row*width+col-1])
				}
				if row > 0 {
					rb = int(comp[(row-1)*width+col])
				}
				if row > 0 && col > 0 {
					rc = int(comp[(row-1)*width+col-1])
				}
				diff := int64(int(comp[row*width+col]) - Predictor(sel, ra, rb, rc))
				sumSquares += diff * diff
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return sumSquares / int64(count)
}
