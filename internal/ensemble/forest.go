package ensemble

import "fmt"

// TreeNode is one node of a decision tree in flattened form.
// A node with a negative Feature is a leaf whose Value is the phishing
// probability; otherwise samples with x[Feature] <= Threshold go Left.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flattened decision tree rooted at node 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// predict walks the tree. The walk is bounded by the node count so a
// corrupt tree with a cycle fails instead of looping.
func (t Tree) predict(x []float64) (float64, error) {
	i := 0
	for range len(t.Nodes) {
		if i < 0 || i >= len(t.Nodes) {
			return 0, fmt.Errorf("%w: node index %d out of range", ErrInvalidModel, i)
		}
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(x) {
			return 0, fmt.Errorf("%w: node splits on feature %d of %d", ErrShapeMismatch, n.Feature, len(x))
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, fmt.Errorf("%w: tree walk did not reach a leaf", ErrInvalidModel)
}

// RandomForest averages the leaf probabilities of its trees.
type RandomForest struct {
	name        string
	trees       []Tree
	importances []float64
}

// NewRandomForest creates a random forest classifier.
// importances may be nil.
func NewRandomForest(name string, trees []Tree, importances []float64) *RandomForest {
	return &RandomForest{name: name, trees: trees, importances: importances}
}

// Name returns the model name.
func (f *RandomForest) Name() string { return f.name }

// Kind returns KindRandomForest.
func (f *RandomForest) Kind() string { return KindRandomForest }

// FeatureImportances returns the impurity-based importances, if known.
func (f *RandomForest) FeatureImportances() []float64 {
	return append([]float64(nil), f.importances...)
}

// PredictProba returns the mean leaf probability across trees.
func (f *RandomForest) PredictProba(x []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, fmt.Errorf("%w: forest %q has no trees", ErrInvalidModel, f.name)
	}
	sum := 0.0
	for i, tree := range f.trees {
		p, err := tree.predict(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += p
	}
	return sum / float64(len(f.trees)), nil
}
