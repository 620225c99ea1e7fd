package models

import (
	"fmt"
	"math"
)

// ModelType selects which family of evaluation metrics applies.
type ModelType string

const (
	Regressor  ModelType = "regressor"
	Classifier ModelType = "classifier"
)

// Evaluation holds computed metric values keyed by metric name.
type Evaluation struct {
	Metrics map[string]float64
}

// Evaluate scores predictions against targets. Regressors produce
// mean_absolute_error, root_mean_squared_error and r2_score; classifiers
// treat values as labels and produce accuracy_score plus macro-averaged
// precision, recall and f1.
func Evaluate(modelType ModelType, targets, predictions []float64) (*Evaluation, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("models: evaluate: no targets")
	}
	if len(targets) != len(predictions) {
		return nil, fmt.Errorf("models: evaluate: %d targets vs %d predictions", len(targets), len(predictions))
	}

	switch modelType {
	case Regressor:
		return evaluateRegressor(targets, predictions), nil
	case Classifier:
		return evaluateClassifier(targets, predictions), nil
	default:
		return nil, fmt.Errorf("models: evaluate: unknown model type %q", modelType)
	}
}

func evaluateRegressor(targets, predictions []float64) *Evaluation {
	n := float64(len(targets))

	var sumAbs, sumSq, sumTargets float64
	for i := range targets {
		diff := predictions[i] - targets[i]
		sumAbs += math.Abs(diff)
		sumSq += diff * diff
		sumTargets += targets[i]
	}

	mean := sumTargets / n
	var totalSq float64
	for _, t := range targets {
		totalSq += (t - mean) * (t - mean)
	}

	r2 := 1.0
	if totalSq > 0 {
		r2 = 1 - sumSq/totalSq
	} else if sumSq > 0 {
		r2 = 0
	}

	return &Evaluation{Metrics: map[string]float64{
		"mean_absolute_error":     sumAbs / n,
		"root_mean_squared_error": math.Sqrt(sumSq / n),
		"r2_score":                r2,
	}}
}

func evaluateClassifier(targets, predictions []float64) *Evaluation {
	labels := map[float64]bool{}
	for _, t := range targets {
		labels[t] = true
	}
	for _, p := range predictions {
		labels[p] = true
	}

	var correct int
	for i := range targets {
		if targets[i] == predictions[i] {
			correct++
		}
	}

	// Macro average over labels.
	var precisionSum, recallSum, f1Sum float64
	for label := range labels {
		var tp, fp, fn float64
		for i := range targets {
			switch {
			case predictions[i] == label && targets[i] == label:
				tp++
			case predictions[i] == label:
				fp++
			case targets[i] == label:
				fn++
			}
		}

		var precision, recall float64
		if tp+fp > 0 {
			precision = tp / (tp + fp)
		}
		if tp+fn > 0 {
			recall = tp / (tp + fn)
		}
		var f1 float64
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		precisionSum += precision
		recallSum += recall
		f1Sum += f1
	}

	n := float64(len(labels))

	return &Evaluation{Metrics: map[string]float64{
		"accuracy_score":  float64(correct) / float64(len(targets)),
		"precision_score": precisionSum / n,
		"recall_score":    recallSum / n,
		"f1_score":        f1Sum / n,
	}}
}
