// Package service wires the analysers, the model trainer and the store into
// the HR workflow used by the CLI and the HTTP server: analyse and train,
// predict one record against a stored model, or both in one call.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/rulescout/internal/analysis"
	"github.com/KaramelBytes/rulescout/internal/catalog"
	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/decision"
	"github.com/KaramelBytes/rulescout/internal/ml"
	"github.com/KaramelBytes/rulescout/internal/observability"
	"github.com/KaramelBytes/rulescout/internal/prediction"
	"github.com/KaramelBytes/rulescout/internal/rules"
	"github.com/KaramelBytes/rulescout/internal/store"
)

// Limits applied to the workflow response.
const (
	MaxKeywords        = 10
	MaxFeaturesPerKind = 15
	MaxBusinessRules   = 10
	MaxHiddenPatterns  = 5
)

// featureSkipWords mark columns that never count as model features.
var featureSkipWords = []string{"id", "name", "code", "key", "date", "time"}

var (
	// ErrModelNotFound is returned when predicting against a dataset without
	// a trained model.
	ErrModelNotFound = errors.New("model not found, analyze a dataset first")
	// ErrDatasetNotFound is returned when the dataset behind a model is gone.
	ErrDatasetNotFound = errors.New("dataset not found")
)

// PredictionError carries the failure reported by the model.
type PredictionError struct {
	Message string
	Details string
}

func (e *PredictionError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// Options configures a Service.
type Options struct {
	Store      store.Store
	Catalog    *catalog.Catalog
	Rules      *rules.Thresholds
	Decision   *decision.Thresholds
	Prediction *prediction.Thresholds
	Log        logrus.FieldLogger
}

// Service runs the HR workflow. It is safe for concurrent use when its store
// is.
type Service struct {
	store      store.Store
	cat        catalog.Catalog
	rules      rules.Thresholds
	decision   *decision.Engine
	prediction *prediction.Engine
	log        logrus.FieldLogger
}

// New builds a Service. A nil store is allowed for the stateless analyses.
func New(opt Options) *Service {
	s := &Service{store: opt.Store, cat: catalog.Default(), rules: rules.DefaultThresholds(), log: opt.Log}
	if opt.Catalog != nil {
		s.cat = *opt.Catalog
	}
	if opt.Rules != nil {
		s.rules = *opt.Rules
	}
	if s.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		s.log = l
	}
	s.decision = decision.NewEngine(decision.Options{Thresholds: opt.Decision, Catalog: &s.cat, Log: s.log})
	s.prediction = prediction.NewEngine(s.cat)
	if opt.Prediction != nil {
		s.prediction = s.prediction.WithThresholds(*opt.Prediction)
	}
	return s
}

// Store returns the configured store, which may be nil.
func (s *Service) Store() store.Store { return s.store }

// ImportantFeatures lists the model-relevant columns by kind.
type ImportantFeatures struct {
	Numerical   []string `json:"numerical"`
	Categorical []string `json:"categorical"`
}

// AnalysisResult is the workflow response. The prediction fields are set
// only by AnalyzeAndPredict.
type AnalysisResult struct {
	DetectedDomain    string            `json:"detected_domain"`
	DomainConfidence  rules.Confidence  `json:"domain_confidence"`
	KeywordsMatched   []string          `json:"keywords_matched"`
	ImportantFeatures ImportantFeatures `json:"important_features"`
	BusinessRules     []string          `json:"business_rules"`
	FeatureImportance ml.Importance     `json:"feature_importance"`
	HiddenPatterns    []string          `json:"hidden_patterns"`
	DatasetID         string            `json:"dataset_id"`
	ModelAvailable    bool              `json:"model_available"`
	TargetColumn      string            `json:"target_column,omitempty"`

	PredictionInput       map[string]any `json:"prediction_input,omitempty"`
	PredictedOutcome      string         `json:"predicted_outcome,omitempty"`
	PredictionExplanation string         `json:"prediction_explanation,omitempty"`
	PredictionConfidence  *float64       `json:"prediction_confidence,omitempty"`
}

// PredictResult is the response of Predict.
type PredictResult struct {
	PredictionInput       map[string]any `json:"prediction_input"`
	PredictedOutcome      string         `json:"predicted_outcome"`
	PredictionExplanation string         `json:"prediction_explanation"`
	Confidence            float64        `json:"confidence"`
	FeatureImportance     ml.Importance  `json:"feature_importance"`
	PredictionID          string         `json:"prediction_id"`
}

// Analyze detects the domain, trains a model and discovers patterns. When a
// target column exists and a store is configured the model is saved under
// datasetID; an empty datasetID gets a fresh one.
func (s *Service) Analyze(ctx context.Context, ds *dataset.Dataset, datasetID string) (AnalysisResult, error) {
	start := time.Now()
	res, err := s.analyze(ctx, ds, datasetID)
	observability.RecordAnalysis(observability.KindTraining, ds.Rows(), err, time.Since(start).Seconds())
	return res, err
}

func (s *Service) analyze(ctx context.Context, ds *dataset.Dataset, datasetID string) (AnalysisResult, error) {
	if ds.Empty() {
		return AnalysisResult{}, dataset.ErrEmpty
	}
	if datasetID == "" {
		datasetID = store.NewDatasetID()
	}
	log := s.log.WithField("dataset_id", datasetID)

	domain := analysis.DetectDomain(ds)
	profile := analysis.ProfileDataset(ds)
	disc, model := ml.Discover(ds, domain.Domain)
	observability.RecordTraining(string(disc.ModelType))
	patterns := ml.DiscoverPatterns(ds, ml.DefaultMinSupport)

	res := AnalysisResult{
		DetectedDomain:    domain.Domain,
		DomainConfidence:  domain.Confidence,
		KeywordsMatched:   head(domain.MatchedKeywords, MaxKeywords),
		ImportantFeatures: importantFeatures(profile),
		BusinessRules:     businessRules(disc.Rules),
		FeatureImportance: disc.FeatureImportance,
		HiddenPatterns:    []string{},
		DatasetID:         datasetID,
		ModelAvailable:    model != nil,
	}
	for i, p := range patterns {
		if i == MaxHiddenPatterns {
			break
		}
		res.HiddenPatterns = append(res.HiddenPatterns, p.Pattern)
	}
	if disc.Message != "" {
		log.WithField("message", disc.Message).Info("ML discovery note")
	}

	if model != nil {
		res.TargetColumn = disc.TargetColumn
		if s.store != nil {
			if err := s.store.SaveModel(ctx, datasetID, model); err != nil {
				return res, fmt.Errorf("save model: %w", err)
			}
			log.WithFields(logrus.Fields{"target": disc.TargetColumn, "model_type": disc.ModelType}).Info("Stored model")
		}
	}
	return res, nil
}

// Predict scores input with the model stored for datasetID and appends the
// outcome to the prediction log.
func (s *Service) Predict(ctx context.Context, datasetID string, input map[string]any) (PredictResult, error) {
	if s.store == nil {
		return PredictResult{}, errors.New("no store configured")
	}
	model, err := s.store.Model(ctx, datasetID)
	if errors.Is(err, store.ErrNotFound) {
		observability.RecordPrediction("no_model")
		return PredictResult{}, fmt.Errorf("%s: %w", datasetID, ErrModelNotFound)
	}
	if err != nil {
		return PredictResult{}, err
	}
	if _, err := s.store.Dataset(ctx, datasetID); errors.Is(err, store.ErrNotFound) {
		observability.RecordPrediction("no_model")
		return PredictResult{}, fmt.Errorf("%s: %w", datasetID, ErrDatasetNotFound)
	} else if err != nil {
		return PredictResult{}, err
	}

	p := model.Predict(input)
	if p.Failed() {
		observability.RecordPrediction("failed")
		return PredictResult{}, &PredictionError{Message: p.Error, Details: p.Details}
	}

	id, err := s.store.AppendPrediction(ctx, store.PredictionRecord{
		DatasetID:        datasetID,
		InputData:        input,
		PredictionResult: p,
	})
	if err != nil {
		return PredictResult{}, fmt.Errorf("log prediction: %w", err)
	}
	observability.RecordPrediction("success")
	s.log.WithFields(logrus.Fields{"dataset_id": datasetID, "prediction_id": id, "outcome": p.PredictedOutcome}).Debug("Prediction logged")

	return PredictResult{
		PredictionInput:       input,
		PredictedOutcome:      p.PredictedOutcome,
		PredictionExplanation: p.Explanation,
		Confidence:            p.Confidence,
		FeatureImportance:     model.FeatureImportance,
		PredictionID:          id,
	}, nil
}

// AnalyzeAndPredict stores ds under a fresh id, analyses it and, when input
// is non-empty, predicts it. A failed prediction leaves the prediction
// fields empty.
func (s *Service) AnalyzeAndPredict(ctx context.Context, ds *dataset.Dataset, input map[string]any) (AnalysisResult, error) {
	if s.store == nil {
		return AnalysisResult{}, errors.New("no store configured")
	}
	if ds.Empty() {
		return AnalysisResult{}, dataset.ErrEmpty
	}
	id := store.NewDatasetID()
	if err := s.store.SaveDataset(ctx, id, ds); err != nil {
		return AnalysisResult{}, fmt.Errorf("save dataset: %w", err)
	}
	res, err := s.Analyze(ctx, ds, id)
	if err != nil || len(input) == 0 {
		return res, err
	}

	res.PredictionInput = input
	pr, err := s.Predict(ctx, id, input)
	if err != nil {
		s.log.WithError(err).WithField("dataset_id", id).Warn("Prediction failed")
		return res, nil
	}
	res.PredictedOutcome = pr.PredictedOutcome
	res.PredictionExplanation = pr.PredictionExplanation
	res.PredictionConfidence = &pr.Confidence
	return res, nil
}

// Profile builds the advisory rule report.
func (s *Service) Profile(ds *dataset.Dataset, opt analysis.Options) (*analysis.Report, error) {
	start := time.Now()
	opt.Thresholds = s.rules
	rep, err := analysis.AnalyzeData(ds, opt)
	observability.RecordAnalysis(observability.KindProfile, ds.Rows(), err, time.Since(start).Seconds())
	return rep, err
}

// Decide applies the per-record decision rules.
func (s *Service) Decide(ds *dataset.Dataset, useML bool) decision.Report {
	start := time.Now()
	rep := s.decision.AnalyzeDataset(ds, useML)
	observability.RecordAnalysis(observability.KindDecision, ds.Rows(), nil, time.Since(start).Seconds())
	return rep
}

// PredictAll runs the keyword-category prediction engine.
func (s *Service) PredictAll(ds *dataset.Dataset) prediction.Report {
	start := time.Now()
	rep := s.prediction.Analyze(ds)
	observability.RecordAnalysis(observability.KindPrediction, ds.Rows(), nil, time.Since(start).Seconds())
	return rep
}

// importantFeatures skips identifier, name, code, key and date/time columns
// and groups the rest by inferred type.
func importantFeatures(p analysis.Profile) ImportantFeatures {
	out := ImportantFeatures{Numerical: []string{}, Categorical: []string{}}
	for _, c := range p.Columns {
		lower := strings.ToLower(c.Name)
		skipped := false
		for _, w := range featureSkipWords {
			if strings.Contains(lower, w) {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}
		switch c.Type {
		case dataset.KindNumeric:
			if len(out.Numerical) < MaxFeaturesPerKind {
				out.Numerical = append(out.Numerical, c.Name)
			}
		case dataset.KindCategorical, dataset.KindBoolean:
			if len(out.Categorical) < MaxFeaturesPerKind {
				out.Categorical = append(out.Categorical, c.Name)
			}
		}
	}
	return out
}

// businessRules keeps IF/THEN rule text and falls back to the description.
func businessRules(in []ml.Rule) []string {
	out := []string{}
	for i, r := range in {
		if i == MaxBusinessRules {
			break
		}
		switch {
		case strings.Contains(r.Rule, "IF") && strings.Contains(r.Rule, "THEN"):
			out = append(out, r.Rule)
		case r.Description != "":
			out = append(out, r.Description)
		}
	}
	return out
}

func head(in []string, n int) []string {
	if len(in) > n {
		in = in[:n]
	}
	if in == nil {
		return []string{}
	}
	return in
}
