package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrNotFitted     = errors.New("model is not fitted")
	ErrAlreadyFitted = errors.New("model is already fitted")
	ErrConvergence   = errors.New("optimizer did not converge")
	ErrInvalidInput  = errors.New("invalid model input")
	ErrInvalidConfig = errors.New("invalid model configuration")
)

// ConvergenceError carries optimizer diagnostics when the iteration budget runs out
type ConvergenceError struct {
	Iterations int
	Loss       float64
	GradNorm   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s after %d iterations (loss=%.6g, grad=%.3g)",
		ErrConvergence, e.Iterations, e.Loss, e.GradNorm)
}

func (e *ConvergenceError) Is(target error) bool {
	return target == ErrConvergence
}

// =============================================================================
// Configuration
// =============================================================================

// ClassWeight 클래스 가중 방식
type ClassWeight string

const (
	ClassWeightBalanced ClassWeight = "balanced" // N / (2 * count_k)
	ClassWeightNone     ClassWeight = "none"
)

// Config holds optimizer settings
// ⭐ 재현성을 위해 Seed 포함 (초기값 생성용)
type Config struct {
	L2            float64     `json:"l2"`             // λ, ‖w‖² 계수 (bias 제외)
	MaxIterations int         `json:"max_iterations"` // Newton 반복 상한 (safety rail)
	Tolerance     float64     `json:"tolerance"`      // max|∇L| / Σc_i 수렴 기준
	ClassWeight   ClassWeight `json:"class_weight"`
	Seed          int64       `json:"seed"`
}

// DefaultConfig returns the default optimizer settings
func DefaultConfig() Config {
	return Config{
		L2:            0.5,
		MaxIterations: 100,
		Tolerance:     1e-8,
		ClassWeight:   ClassWeightBalanced,
		Seed:          42,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.L2 < 0 || math.IsNaN(c.L2) {
		return fmt.Errorf("%w: l2 must be >= 0", ErrInvalidConfig)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be > 0", ErrInvalidConfig)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be > 0", ErrInvalidConfig)
	}
	if c.ClassWeight != ClassWeightBalanced && c.ClassWeight != ClassWeightNone {
		return fmt.Errorf("%w: unknown class_weight %q", ErrInvalidConfig, c.ClassWeight)
	}
	return nil
}

// =============================================================================
// Logistic Model
// =============================================================================

// fitted is the immutable trained state (raw feature space)
type fitted struct {
	weights      []float64
	bias         float64
	classWeights [2]float64
	iterations   int
	loss         float64
	rows         int
	defaultRate  float64
	trainedAt    time.Time
}

// Logistic is a binary logistic regression PD model.
// Untrained until Fit returns a trained copy; the trained state never changes.
type Logistic struct {
	cfg          Config
	featureOrder []string
	trained      *fitted // nil = untrained
}

// NewLogistic creates an untrained model for the given feature order
func NewLogistic(cfg Config, featureOrder []string) *Logistic {
	return &Logistic{
		cfg:          cfg,
		featureOrder: append([]string{}, featureOrder...),
	}
}

// Config returns the optimizer settings
func (m *Logistic) Config() Config {
	return m.cfg
}

// Fitted reports whether the model is trained
func (m *Logistic) Fitted() bool {
	return m.trained != nil
}

// FeatureOrder returns the feature layout expected by PredictProba
func (m *Logistic) FeatureOrder() []string {
	return append([]string{}, m.featureOrder...)
}

// Fit estimates (w, b) and returns a new trained model. The receiver is left untouched.
func (m *Logistic) Fit(x [][]float64, y []int) (*Logistic, error) {
	if m.trained != nil {
		return nil, ErrAlreadyFitted
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkTrainingInput(x, y, len(m.featureOrder)); err != nil {
		return nil, err
	}

	result, err := newtonSolve(x, y, m.cfg)
	if err != nil {
		return nil, err
	}
	result.trainedAt = time.Now().UTC()

	return &Logistic{
		cfg:          m.cfg,
		featureOrder: append([]string{}, m.featureOrder...),
		trained:      result,
	}, nil
}

// PredictProba returns σ(w·x + b) for every row; each value lies in [0, 1]
func (m *Logistic) PredictProba(x [][]float64) ([]float64, error) {
	if m.trained == nil {
		return nil, ErrNotFitted
	}

	d := len(m.trained.weights)
	probs := make([]float64, len(x))
	for i, row := range x {
		if len(row) != d {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidInput, i, len(row), d)
		}
		probs[i] = sigmoid(linear(m.trained.weights, m.trained.bias, row))
	}
	return probs, nil
}

// Coefficients returns copies of the raw-space weights and the bias
func (m *Logistic) Coefficients() ([]float64, float64, error) {
	if m.trained == nil {
		return nil, 0, ErrNotFitted
	}
	return append([]float64{}, m.trained.weights...), m.trained.bias, nil
}

// ClassWeights returns the per-class sample weights used during fit ([0]=non-default, [1]=default)
func (m *Logistic) ClassWeights() ([2]float64, error) {
	if m.trained == nil {
		return [2]float64{}, ErrNotFitted
	}
	return m.trained.classWeights, nil
}

// Info summarizes the completed fit for audit
func (m *Logistic) Info() (contracts.TrainingInfo, error) {
	if m.trained == nil {
		return contracts.TrainingInfo{}, ErrNotFitted
	}
	return contracts.TrainingInfo{
		Rows:         m.trained.rows,
		Iterations:   m.trained.iterations,
		FinalLoss:    m.trained.loss,
		FeatureOrder: m.FeatureOrder(),
		Weights:      append([]float64{}, m.trained.weights...),
		Bias:         m.trained.bias,
		DefaultRate:  m.trained.defaultRate,
	}, nil
}

// =============================================================================
// Input checks
// =============================================================================

func checkTrainingInput(x [][]float64, y []int, d int) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: empty training set", ErrInvalidInput)
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows but %d labels", ErrInvalidInput, len(x), len(y))
	}
	if d == 0 {
		return fmt.Errorf("%w: no features", ErrInvalidInput)
	}
	for i, row := range x {
		if len(row) != d {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidInput, i, len(row), d)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d feature %d is not finite", ErrInvalidInput, i, j)
			}
		}
		if y[i] != 0 && y[i] != 1 {
			return fmt.Errorf("%w: row %d label %d not in {0,1}", ErrInvalidInput, i, y[i])
		}
	}
	return nil
}

// =============================================================================
// Numerics
// =============================================================================

// maxTerm bounds each w_j*x_j so z stays finite for any finite input
const maxTerm = 1e300

func linear(w []float64, b float64, x []float64) float64 {
	z := b
	for j, v := range x {
		t := w[j] * v
		if t > maxTerm {
			t = maxTerm
		} else if t < -maxTerm {
			t = -maxTerm
		}
		z += t
	}
	return z
}

// sigmoid is the numerically stable logistic function
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + e^z) without overflow
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// logLoss is -y·log σ(z) - (1-y)·log(1-σ(z))
func logLoss(z float64, y int) float64 {
	if y == 1 {
		return softplus(-z)
	}
	return softplus(z)
}

// BalancedWeights returns N / (2 * count_k) per class; an absent class gets 0
func BalancedWeights(y []int) [2]float64 {
	var counts [2]int
	for _, v := range y {
		counts[v]++
	}
	var w [2]float64
	n := float64(len(y))
	for k := 0; k < 2; k++ {
		if counts[k] > 0 {
			w[k] = n / (2 * float64(counts[k]))
		}
	}
	return w
}

// =============================================================================
// Newton solver (standardized space)
// =============================================================================

// newtonSolve minimizes Σ c_i·logloss_i + λ‖w‖² with damped Newton steps.
// Features are standardized internally; the penalty stays on the raw weights,
// so the returned (w, b) is the optimum of the raw-space objective.
func newtonSolve(x [][]float64, y []int, cfg Config) (*fitted, error) {
	n := len(x)
	d := len(x[0])
	p := d + 1 // 마지막 좌표 = bias

	// 1. 클래스 가중치
	classW := [2]float64{1, 1}
	if cfg.ClassWeight == ClassWeightBalanced {
		classW = BalancedWeights(y)
	}
	c := make([]float64, n)
	var sumC float64
	var positives int
	for i, label := range y {
		c[i] = classW[label]
		sumC += c[i]
		positives += label
	}

	// 2. 표준화 (population std, 상수 컬럼은 scale=1)
	mean, scale := standardize(x)
	xs := make([][]float64, n)
	for i, row := range x {
		r := make([]float64, d)
		for j, v := range row {
			r[j] = (v - mean[j]) / scale[j]
		}
		xs[i] = r
	}

	// ‖w‖² = Σ (θ_j / scale_j)²: raw 가중치 기준 벌점
	penalty := make([]float64, d)
	for j := range penalty {
		penalty[j] = cfg.L2 / (scale[j] * scale[j])
	}

	// 3. seeded 초기값
	rng := rand.New(rand.NewSource(cfg.Seed))
	theta := make([]float64, p)
	for j := 0; j < d; j++ {
		theta[j] = rng.NormFloat64() * 0.01
	}

	objective := func(th []float64) float64 {
		var loss float64
		for i, row := range xs {
			loss += c[i] * logLoss(linear(th[:d], th[d], row), y[i])
		}
		for j := 0; j < d; j++ {
			loss += penalty[j] * th[j] * th[j]
		}
		return loss
	}

	ridge := 1e-12 * math.Max(1, sumC)
	loss := objective(theta)
	iterations := 0

	for iter := 0; ; iter++ {
		grad := make([]float64, p)
		hess := make([][]float64, p)
		for a := range hess {
			hess[a] = make([]float64, p)
		}

		for i, row := range xs {
			prob := sigmoid(linear(theta[:d], theta[d], row))
			r := c[i] * (prob - float64(y[i]))
			h := c[i] * prob * (1 - prob)
			for a := 0; a < p; a++ {
				xa := 1.0
				if a < d {
					xa = row[a]
				}
				grad[a] += r * xa
				for b := a; b < p; b++ {
					xb := 1.0
					if b < d {
						xb = row[b]
					}
					hess[a][b] += h * xa * xb
				}
			}
		}
		for a := 0; a < p; a++ {
			for b := 0; b < a; b++ {
				hess[a][b] = hess[b][a]
			}
			hess[a][a] += ridge
		}
		for j := 0; j < d; j++ {
			grad[j] += 2 * penalty[j] * theta[j]
			hess[j][j] += 2 * penalty[j]
		}

		gradNorm := maxAbs(grad) / sumC
		if gradNorm < cfg.Tolerance {
			iterations = iter
			break
		}
		if iter >= cfg.MaxIterations {
			return nil, &ConvergenceError{Iterations: iter, Loss: loss, GradNorm: gradNorm}
		}

		step, err := solve(hess, grad)
		if err != nil {
			// 특이 행렬: steepest descent 로 대체
			step = append([]float64{}, grad...)
		}

		// Armijo backtracking
		slope := dot(grad, step)
		t := 1.0
		next := make([]float64, p)
		accepted := false
		for k := 0; k < 60; k++ {
			for a := range theta {
				next[a] = theta[a] - t*step[a]
			}
			nextLoss := objective(next)
			if nextLoss <= loss-1e-4*t*slope {
				copy(theta, next)
				loss = nextLoss
				accepted = true
				break
			}
			t /= 2
		}
		if !accepted {
			// 더 이상 손실을 줄일 수 없음 = 수치적 최적점
			iterations = iter + 1
			break
		}
	}

	// 4. raw 공간으로 역변환
	weights := make([]float64, d)
	bias := theta[d]
	for j := 0; j < d; j++ {
		weights[j] = theta[j] / scale[j]
		bias -= theta[j] * mean[j] / scale[j]
	}

	return &fitted{
		weights:      weights,
		bias:         bias,
		classWeights: classW,
		iterations:   iterations,
		loss:         loss,
		rows:         n,
		defaultRate:  float64(positives) / float64(n),
	}, nil
}

func standardize(x [][]float64) (mean, scale []float64) {
	n := float64(len(x))
	d := len(x[0])
	mean = make([]float64, d)
	scale = make([]float64, d)

	for _, row := range x {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			diff := v - mean[j]
			scale[j] += diff * diff
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 || math.IsNaN(scale[j]) || math.IsInf(scale[j], 0) {
			scale[j] = 1
		}
	}
	return mean, scale
}

// solve returns s with A·s = g (Gaussian elimination, partial pivoting)
func solve(a [][]float64, g []float64) ([]float64, error) {
	p := len(g)
	m := make([][]float64, p)
	for i := range a {
		m[i] = make([]float64, p+1)
		copy(m[i], a[i])
		m[i][p] = g[i]
	}

	for col := 0; col < p; col++ {
		pivot := col
		for r := col + 1; r < p; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-300 {
			return nil, errors.New("singular matrix")
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < p; r++ {
			f := m[r][col] / m[col][col]
			for k := col; k <= p; k++ {
				m[r][k] -= f * m[col][k]
			}
		}
	}

	s := make([]float64, p)
	for r := p - 1; r >= 0; r-- {
		sum := m[r][p]
		for k := r + 1; k < p; k++ {
			sum -= m[r][k] * s[k]
		}
		s[r] = sum / m[r][r]
	}
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("non-finite solution")
		}
	}
	return s, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
