package service

import (
	"fmt"
	"sort"

	"github.com/Aashish23092/travel-document-verification/dto"
	"github.com/Aashish23092/travel-document-verification/utils"
	"github.com/Aashish23092/travel-document-verification/utils/mrz"
)

// AgreementBoost is added to the strongest confidence when two sources agree
const AgreementBoost = 10

// InferredNationalityCap bounds a nationality inferred from the issuing state
const InferredNationalityCap = 50

// SourceCandidates holds the per-source field candidates of one request
type SourceCandidates struct {
	Mrz     *dto.MrzBlock
	Barcode *dto.BarcodeResult
	OCR     map[string]dto.ExtractedField
}

type candidate struct {
	field           dto.ExtractedField
	checksumInvalid bool
}

// Reconcile merges the candidates of every source into one field per id.
// Sources are tried in the order mrz, barcode, ocr, inferred; a lower source
// only replaces a higher one that failed its checksum and is not more
// confident. Required fields without any candidate are emitted empty.
func Reconcile(c SourceCandidates) map[string]dto.ExtractedField {
	out := map[string]dto.ExtractedField{}
	for _, id := range fieldIDs(c) {
		if f, ok := reconcileField(id, c.candidatesFor(id)); ok {
			out[id] = f
		}
	}

	if _, ok := out[dto.FieldNationality]; !ok || !out[dto.FieldNationality].Present() {
		if state, ok := out[dto.FieldIssuingState]; ok && state.Present() {
			out[dto.FieldNationality] = dto.NewField(dto.FieldNationality, state.StringValue(),
				min(InferredNationalityCap, state.Confidence), dto.SourceInferred).
				WithIssue("inferred from issuing state")
		}
	}

	for _, id := range dto.RequiredFields {
		if _, ok := out[id]; !ok {
			out[id] = dto.MissingField(id)
		}
	}
	return out
}

func (c SourceCandidates) candidatesFor(id string) []candidate {
	var cands []candidate
	if c.Mrz.Found() {
		if f, ok := c.Mrz.Fields[id]; ok && f.Present() {
			cands = append(cands, candidate{f, c.Mrz.HasCheckDigits && !c.Mrz.ChecksumValid && failedChecksum(f)})
		}
	}
	if c.Barcode != nil {
		if f, ok := c.Barcode.Fields[id]; ok && f.Present() {
			cands = append(cands, candidate{f, !c.Barcode.ChecksumValid && failedChecksum(f)})
		}
	}
	if f, ok := c.OCR[id]; ok && f.Present() {
		cands = append(cands, candidate{f, false})
	}
	return cands
}

// failedChecksum reports whether a field of a checksum-invalid block is
// itself untrusted. Fields whose own check digits passed keep full confidence.
func failedChecksum(f dto.ExtractedField) bool {
	return len(f.Issues) > 0 || f.Confidence <= mrz.InvalidConfidence
}

func reconcileField(id string, cands []candidate) (dto.ExtractedField, bool) {
	if len(cands) == 0 {
		return dto.ExtractedField{}, false
	}

	sel := 0
	for i := 1; i < len(cands); i++ {
		if cands[sel].checksumInvalid && cands[i].field.Confidence >= cands[sel].field.Confidence {
			sel = i
		}
	}
	chosen := cands[sel]
	key := utils.NormalizeString(chosen.field.StringValue())

	result := dto.NewField(id, chosen.field.StringValue(), chosen.field.Confidence, chosen.field.Source)
	for _, issue := range chosen.field.Issues {
		result = result.WithIssue(issue)
	}

	best := chosen.field.Confidence
	agreed := false
	for i, other := range cands {
		if i == sel {
			continue
		}
		if utils.NormalizeString(other.field.StringValue()) == key {
			agreed = true
			best = max(best, other.field.Confidence)
			continue
		}
		result = result.WithIssue(fmt.Sprintf("conflicting %s value %q from %s source",
			id, other.field.StringValue(), other.field.Source))
	}

	if agreed {
		result.Confidence = min(100, best+AgreementBoost)
	}
	// an MRZ value that failed its checksum stays in the invalid band
	if chosen.checksumInvalid && chosen.field.Source == dto.SourceMRZ {
		result.Confidence = min(result.Confidence, mrz.InvalidConfidence)
	}
	return result, true
}

// fieldIDs lists every field id with at least one candidate, sorted
func fieldIDs(c SourceCandidates) []string {
	seen := map[string]bool{}
	if c.Mrz.Found() {
		for id := range c.Mrz.Fields {
			seen[id] = true
		}
	}
	if c.Barcode != nil {
		for id := range c.Barcode.Fields {
			seen[id] = true
		}
	}
	for id := range c.OCR {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
