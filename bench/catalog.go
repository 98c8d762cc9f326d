package bench

import (
	"github.com/modelbench/modelbench/classifier"
	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/linear"
	"github.com/modelbench/modelbench/neighbors"
)

// ModelSpec is one catalog entry: a stable name and a constructor that
// returns a fresh, unfitted estimator. The constructor runs inside the
// per-model failure boundary, so a panicking constructor fails only its
// own entry.
type ModelSpec struct {
	Name string
	New  func() model.Estimator
}

// Catalog holds the candidate models per problem type. Order is
// significant: results are reported, and ties broken, in catalog order.
type Catalog struct {
	classification []ModelSpec
	regression     []ModelSpec
}

// NewCatalog builds a catalog from explicit entry lists.
func NewCatalog(classification, regression []ModelSpec) *Catalog {
	return &Catalog{classification: classification, regression: regression}
}

// DefaultCatalog returns the built-in candidate set: six classifiers and
// five regressors.
func DefaultCatalog() *Catalog {
	return &Catalog{
		classification: []ModelSpec{
			{Name: "LogisticRegression", New: func() model.Estimator { return classifier.NewLogisticRegression() }},
			{Name: "KNNClassifier", New: func() model.Estimator { return neighbors.NewKNNClassifier(5) }},
			{Name: "GaussianNB", New: func() model.Estimator { return classifier.NewGaussianNB() }},
			{Name: "DecisionStump", New: func() model.Estimator { return classifier.NewDecisionStump() }},
			{Name: "Perceptron", New: func() model.Estimator { return classifier.NewPerceptron() }},
			{Name: "NearestCentroid", New: func() model.Estimator { return classifier.NewNearestCentroid() }},
		},
		regression: []ModelSpec{
			{Name: "LinearRegression", New: func() model.Estimator { return linear.NewLinearRegression() }},
			{Name: "Ridge", New: func() model.Estimator { return linear.NewRidge(1.0) }},
			{Name: "Lasso", New: func() model.Estimator { return linear.NewLasso(0.1) }},
			{Name: "ElasticNet", New: func() model.Estimator { return linear.NewElasticNet(0.1, 0.5) }},
			{Name: "KNNRegressor", New: func() model.Estimator { return neighbors.NewKNNRegressor(5) }},
		},
	}
}

// Models returns the entries for the given problem type, in catalog order.
func (c *Catalog) Models(pt ProblemType) []ModelSpec {
	if pt == Classification {
		return c.classification
	}
	return c.regression
}
