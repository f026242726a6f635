package contracts

// Observer receives audit events from the pipeline
// ⭐ SSOT: 감사 로그는 전역 logger 가 아닌 주입된 Observer 로만 기록
type Observer interface {
	DatasetValidated(source string, rows int, required []string)
	ModelTrained(info TrainingInfo)
	ModelEvaluated(m DiscriminationMetrics)
	ModelSaved(location string)
	PortfolioScored(summary PortfolioSummary)
}

// PDModel estimates default probabilities for feature rows
type PDModel interface {
	FeatureOrder() []string
	PredictProba(x [][]float64) ([]float64, error)
}

// NopObserver discards every event
type NopObserver struct{}

func (NopObserver) DatasetValidated(string, int, []string) {}
func (NopObserver) ModelTrained(TrainingInfo)              {}
func (NopObserver) ModelEvaluated(DiscriminationMetrics)   {}
func (NopObserver) ModelSaved(string)                      {}
func (NopObserver) PortfolioScored(PortfolioSummary)       {}
