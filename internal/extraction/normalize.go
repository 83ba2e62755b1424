package extraction

import (
	"strings"

	"github.com/quotevox/quotevox-backend/internal/entity"
	"github.com/quotevox/quotevox-backend/internal/llm"
)

// DefaultFieldConfidence is assigned to every correctable scalar the model
// returned. The model's own confidence claims are never trusted; this is a
// flat prior that the deterministic scorer and the correction merger adjust.
const DefaultFieldConfidence = 0.85

// Sources recorded on the customer block.
const (
	SourceTranscript    = "transcript"
	SourceUserSelection = "user_selection"
)

// Normalize converts the raw wire extraction into the canonical record.
// Every present correctable scalar is wrapped at DefaultFieldConfidence;
// absent fields become {nil, 0}. When a customer is already bound to the
// intake, the known identity overwrites whatever the model returned.
func Normalize(raw *llm.RawExtraction, boundCustomer *entity.Customer) entity.ExtractionRecord {
	rec := entity.ExtractionRecord{
		Customer:      normalizeCustomer(raw.Customer, boundCustomer),
		Job:           normalizeJob(raw.Job),
		Time:          entity.TimeInfo{LabourEntries: normalizeLabour(raw.Time.LabourEntries)},
		Materials:     entity.MaterialsInfo{Items: normalizeMaterials(raw.Materials.Items)},
		Fees:          normalizeFees(raw.Fees),
		MissingFields: []entity.MissingField{},
		Assumptions:   normalizeAssumptions(raw.Assumptions),
	}
	return rec
}

func normalizeCustomer(raw llm.RawCustomer, bound *entity.Customer) entity.CustomerInfo {
	if bound != nil {
		info := entity.CustomerInfo{Source: SourceUserSelection}
		info.Name = entity.NewConfident(bound.Name, 1.0)
		if bound.Email != "" {
			info.Email = entity.NewConfident(bound.Email, 1.0)
		}
		if bound.Phone != "" {
			info.Phone = entity.NewConfident(bound.Phone, 1.0)
		}
		return info
	}
	return entity.CustomerInfo{
		Name:   wrapString(raw.Name),
		Email:  wrapString(raw.Email),
		Phone:  wrapString(raw.Phone),
		Source: SourceTranscript,
	}
}

func normalizeJob(raw llm.RawJob) entity.JobInfo {
	job := entity.JobInfo{
		Title:            wrapString(raw.Title),
		SiteAddress:      wrapString(raw.SiteAddress),
		ScopeOfWork:      []string{},
		EstimatedDaysMin: raw.EstimatedDaysMin,
		EstimatedDaysMax: raw.EstimatedDaysMax,
		JobDate:          raw.JobDate,
	}
	if raw.Summary != nil {
		job.Summary = strings.TrimSpace(*raw.Summary)
	}
	for _, task := range raw.ScopeOfWork {
		if t := strings.TrimSpace(task); t != "" {
			job.ScopeOfWork = append(job.ScopeOfWork, t)
		}
	}
	return job
}

func normalizeLabour(raw []llm.RawLabourEntry) []entity.LabourEntry {
	out := make([]entity.LabourEntry, 0, len(raw))
	for _, e := range raw {
		desc := strings.TrimSpace(e.Description)
		if desc == "" && e.Hours == nil && e.Days == nil {
			continue
		}
		out = append(out, entity.LabourEntry{
			Description: desc,
			Hours:       wrapFloat(e.Hours),
			Days:        wrapFloat(e.Days),
			People:      wrapFloat(e.People),
			Note:        strings.TrimSpace(e.Note),
		})
	}
	return out
}

func normalizeMaterials(raw []llm.RawMaterialItem) []entity.MaterialItem {
	out := make([]entity.MaterialItem, 0, len(raw))
	for _, m := range raw {
		desc := strings.TrimSpace(m.Description)
		if desc == "" {
			continue
		}
		out = append(out, entity.MaterialItem{
			Description:  desc,
			Quantity:     wrapFloat(m.Quantity),
			Unit:         wrapString(m.Unit),
			NeedsPricing: true, // until catalog matching or the user prices it
			Notes:        strings.TrimSpace(m.Notes),
		})
	}
	return out
}

func normalizeFees(raw llm.RawFees) entity.FeesInfo {
	fees := entity.FeesInfo{
		Travel: entity.TravelFee{
			IsTime:   raw.Travel.IsTime,
			Hours:    wrapFloat(raw.Travel.Hours),
			FeeCents: raw.Travel.FeeCents,
		},
		CalloutFeeCents: raw.CalloutFeeCents,
	}
	if raw.MaterialsPickup.Enabled != nil {
		fees.MaterialsPickup.Enabled = *raw.MaterialsPickup.Enabled
	}
	fees.MaterialsPickup.Minutes = raw.MaterialsPickup.Minutes
	return fees
}

func normalizeAssumptions(raw []llm.RawAssumption) []entity.Assumption {
	out := make([]entity.Assumption, 0, len(raw))
	for _, a := range raw {
		field := strings.TrimSpace(a.Field)
		text := strings.TrimSpace(a.Assumption)
		if field == "" || text == "" {
			continue
		}
		source := strings.TrimSpace(a.Source)
		if source == "" {
			source = "model"
		}
		out = append(out, entity.Assumption{
			Field:      field,
			Assumption: text,
			Confidence: DefaultFieldConfidence,
			Source:     source,
		})
	}
	return out
}

func wrapString(v *string) entity.Confident[string] {
	if v == nil {
		return entity.Absent[string]()
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return entity.Absent[string]()
	}
	return entity.NewConfident(s, DefaultFieldConfidence)
}

func wrapFloat(v *float64) entity.Confident[float64] {
	if v == nil {
		return entity.Absent[float64]()
	}
	return entity.NewConfident(*v, DefaultFieldConfidence)
}
