package core

import (
	"context"
	"log"

	"github.com/drugwatch/approvals-hunter/internal/ai"
	"github.com/drugwatch/approvals-hunter/internal/observability"
)

// ClassifierService assigns drug and disease categories to an approval.
// When the configured client fails, it degrades to the keyword classifier
// instead of aborting ingestion.
type ClassifierService struct {
	aiClient ai.Client
	fallback ai.Client
}

func NewClassifierService(aiClient ai.Client) *ClassifierService {
	return &ClassifierService{
		aiClient: aiClient,
		fallback: ai.NewMockClient(),
	}
}

func (s *ClassifierService) ClassifyApproval(ctx context.Context, data ai.DrugData) (drugType, diseaseType string) {
	observability.IncAICall("classifier")
	drugType, err := s.aiClient.ClassifyDrug(ctx, data)
	if err != nil {
		log.Printf("Classifier: drug classification failed, using keywords: %v", err)
		observability.IncError(observability.ErrorAI, "classifier")
		observability.IncAIFallback("drug")
		drugType, _ = s.fallback.ClassifyDrug(ctx, data)
	}

	observability.IncAICall("classifier")
	diseaseType, err = s.aiClient.ClassifyDisease(ctx, data)
	if err != nil {
		log.Printf("Classifier: disease classification failed, using keywords: %v", err)
		observability.IncError(observability.ErrorAI, "classifier")
		observability.IncAIFallback("disease")
		diseaseType, _ = s.fallback.ClassifyDisease(ctx, data)
	}

	return drugType, diseaseType
}
