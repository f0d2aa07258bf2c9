package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DrugCategories are the therapeutic classes an approval can land in.
var DrugCategories = []string{
	"Antibiotics", "Antivirals", "Antifungals", "Antiparasitics", "Antineoplastics",
	"Anti-inflammatories", "Analgesics", "Antipsychotics", "Antidepressants",
	"Antidiabetics", "Cardiovascular", "Respiratory", "Gastrointestinal",
	"Neurological", "Dermatological", "Ophthalmological", "Hormonal",
	"Immunological", "Anesthetics", "Vaccines", "Nutritional Supplements",
}

// DiseaseCategories are the indication classes for the treated condition.
var DiseaseCategories = []string{
	"Infectious Diseases", "Autoimmune Diseases", "Cardiovascular Diseases",
	"Neurological Disorders", "Cancers", "Respiratory Diseases",
	"Gastrointestinal Diseases", "Endocrine Disorders", "Genetic Disorders",
	"Mental Health Disorders", "Musculoskeletal Disorders", "Hematological Disorders",
	"Dermatological Conditions", "Renal Disorders", "Ophthalmological Disorders",
	"Hepatic Disorders", "Reproductive System Disorders", "Nutritional Disorders",
	"Developmental Disorders", "Traumatic Injuries",
}

// CategoryOther is returned when nothing fits.
const CategoryOther = "Other"

type Client interface {
	ClassifyDrug(ctx context.Context, data DrugData) (string, error)
	ClassifyDisease(ctx context.Context, data DrugData) (string, error)
}

// DrugData is the approval material handed to the classifier.
type DrugData struct {
	Name           string
	Administration string
	Description    string
	Treatment      string
}

// NewClient creates an AI client based on the AI_PROVIDER environment variable.
// Supported providers: "openai" (default if OPENAI_API_KEY is set), "mock"
//
// Environment variables:
//   - AI_PROVIDER: "openai" or "mock" (optional, auto-detected)
//   - OPENAI_API_KEY: Your OpenAI API key
func NewClient() Client {
	provider := strings.ToLower(os.Getenv("AI_PROVIDER"))
	openaiKey := os.Getenv("OPENAI_API_KEY")

	// Auto-detect provider if not specified
	if provider == "" {
		if openaiKey != "" {
			provider = "openai"
		} else {
			provider = "mock"
		}
	}

	switch provider {
	case "openai":
		if openaiKey == "" {
			fmt.Println("WARNING: AI_PROVIDER=openai but OPENAI_API_KEY not set, falling back to mock")
			return NewMockClient()
		}
		fmt.Println("Using OpenAI client for drug classification")
		return NewOpenAIClient(openaiKey)
	default:
		fmt.Println("Using keyword classifier (set OPENAI_API_KEY for real AI)")
		return NewMockClient()
	}
}

// MockClient classifies with keyword lookups instead of a model. It keeps
// ingestion running when no API key is configured or the API is down.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var drugKeywords = map[string]string{
	"antibiotic":    "Antibiotics",
	"antibacterial": "Antibiotics",
	"antiviral":     "Antivirals",
	"hiv":           "Antivirals",
	"hepatitis":     "Antivirals",
	"antifungal":    "Antifungals",
	"tumor":         "Antineoplastics",
	"cancer":        "Antineoplastics",
	"carcinoma":     "Antineoplastics",
	"leukemia":      "Antineoplastics",
	"lymphoma":      "Antineoplastics",
	"inflammat":     "Anti-inflammatories",
	"pain":          "Analgesics",
	"analgesic":     "Analgesics",
	"schizophrenia": "Antipsychotics",
	"depression":    "Antidepressants",
	"diabet":        "Antidiabetics",
	"insulin":       "Antidiabetics",
	"cardio":        "Cardiovascular",
	"heart":         "Cardiovascular",
	"hypertension":  "Cardiovascular",
	"cholesterol":   "Cardiovascular",
	"asthma":        "Respiratory",
	"copd":          "Respiratory",
	"pulmonary":     "Respiratory",
	"gastro":        "Gastrointestinal",
	"bowel":         "Gastrointestinal",
	"seizure":       "Neurological",
	"epilep":        "Neurological",
	"migraine":      "Neurological",
	"parkinson":     "Neurological",
	"alzheimer":     "Neurological",
	"psoriasis":     "Dermatological",
	"eczema":        "Dermatological",
	"ophthalm":      "Ophthalmological",
	"macular":       "Ophthalmological",
	"retina":        "Ophthalmological",
	"hormone":       "Hormonal",
	"testosterone":  "Hormonal",
	"estrogen":      "Hormonal",
	"thyroid":       "Hormonal",
	"immune":        "Immunological",
	"immunodefic":   "Immunological",
	"anesthe":       "Anesthetics",
	"vaccine":       "Vaccines",
	"immunization":  "Vaccines",
	"vitamin":       "Nutritional Supplements",
	"supplement":    "Nutritional Supplements",
}

var diseaseKeywords = map[string]string{
	"infection":    "Infectious Diseases",
	"bacterial":    "Infectious Diseases",
	"viral":        "Infectious Diseases",
	"covid":        "Infectious Diseases",
	"lupus":        "Autoimmune Diseases",
	"rheumatoid":   "Autoimmune Diseases",
	"sclerosis":    "Autoimmune Diseases",
	"crohn":        "Autoimmune Diseases",
	"heart":        "Cardiovascular Diseases",
	"hypertension": "Cardiovascular Diseases",
	"stroke":       "Cardiovascular Diseases",
	"migraine":     "Neurological Disorders",
	"epilep":       "Neurological Disorders",
	"parkinson":    "Neurological Disorders",
	"alzheimer":    "Neurological Disorders",
	"cancer":       "Cancers",
	"tumor":        "Cancers",
	"carcinoma":    "Cancers",
	"leukemia":     "Cancers",
	"lymphoma":     "Cancers",
	"myeloma":      "Cancers",
	"asthma":       "Respiratory Diseases",
	"copd":         "Respiratory Diseases",
	"pulmonary":    "Respiratory Diseases",
	"bowel":        "Gastrointestinal Diseases",
	"gastro":       "Gastrointestinal Diseases",
	"colitis":      "Gastrointestinal Diseases",
	"diabet":       "Endocrine Disorders",
	"thyroid":      "Endocrine Disorders",
	"obesity":      "Endocrine Disorders",
	"genetic":      "Genetic Disorders",
	"hereditary":   "Genetic Disorders",
	"duchenne":     "Genetic Disorders",
	"depression":   "Mental Health Disorders",
	"schizophren":  "Mental Health Disorders",
	"anxiety":      "Mental Health Disorders",
	"arthritis":    "Musculoskeletal Disorders",
	"osteopor":     "Musculoskeletal Disorders",
	"anemia":       "Hematological Disorders",
	"hemophilia":   "Hematological Disorders",
	"psoriasis":    "Dermatological Conditions",
	"eczema":       "Dermatological Conditions",
	"kidney":       "Renal Disorders",
	"renal":        "Renal Disorders",
	"macular":      "Ophthalmological Disorders",
	"glaucoma":     "Ophthalmological Disorders",
	"hepatic":      "Hepatic Disorders",
	"liver":        "Hepatic Disorders",
	"endometri":    "Reproductive System Disorders",
	"fertility":    "Reproductive System Disorders",
	"injury":       "Traumatic Injuries",
	"trauma":       "Traumatic Injuries",
}

func (m *MockClient) ClassifyDrug(ctx context.Context, data DrugData) (string, error) {
	haystack := strings.ToLower(strings.Join([]string{
		data.Name, data.Administration, data.Description, data.Treatment,
	}, " "))
	return matchKeywords(haystack, drugKeywords), nil
}

func (m *MockClient) ClassifyDisease(ctx context.Context, data DrugData) (string, error) {
	haystack := strings.ToLower(data.Name + " " + data.Treatment)
	return matchKeywords(haystack, diseaseKeywords), nil
}

// matchKeywords prefers the longest matching keyword so "immunization"
// beats "immune" when both hit.
func matchKeywords(haystack string, keywords map[string]string) string {
	best := ""
	bestLen := 0
	for keyword, category := range keywords {
		if strings.Contains(haystack, keyword) && len(keyword) > bestLen {
			best = category
			bestLen = len(keyword)
		}
	}
	if best == "" {
		return CategoryOther
	}
	return best
}
