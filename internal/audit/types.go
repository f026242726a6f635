package audit

import "time"

// Run status
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RunRecord 파이프라인 실행 이력 (credit.runs)
type RunRecord struct {
	ID               string    `json:"id"`
	Command          string    `json:"command"` // run, train, score
	Status           string    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	DataSource       string    `json:"data_source"`
	ConfigHash       string    `json:"config_hash"`
	ModelFingerprint string    `json:"model_fingerprint,omitempty"`
	Rows             int       `json:"rows"`
	AUC              *float64  `json:"auc,omitempty"`  // nil: 미평가 또는 단일 클래스
	Gini             *float64  `json:"gini,omitempty"` // nil: 미평가 또는 단일 클래스
	TotalEAD         float64   `json:"total_ead"`
	TotalEL          float64   `json:"total_el"`
	AvgPD            float64   `json:"avg_pd"`
	CoverageRatio    *float64  `json:"coverage_ratio,omitempty"` // nil: EAD=0
	Error            string    `json:"error,omitempty"`
	Events           []Event   `json:"events"`
}

// Duration returns the wall time of the run
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ModelEntry 모델 레지스트리 항목 (credit.models)
type ModelEntry struct {
	Fingerprint  string    `json:"fingerprint"`
	Location     string    `json:"location"`
	FeatureOrder []string  `json:"feature_order"`
	TrainRows    int       `json:"train_rows"`
	Iterations   int       `json:"iterations"`
	FinalLoss    float64   `json:"final_loss"`
	AUC          *float64  `json:"auc,omitempty"`
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
}
