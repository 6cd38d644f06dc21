package posting

import (
	"context"
	"fmt"

	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

// PostManualEntryFromRequest adapta el request HTTP a PostManualEntry.
func (e *PostingEngine) PostManualEntryFromRequest(ctx context.Context, userID string, in dto.ManualEntryRequest) (*entity.JournalEntry, error) {
	date, err := dto.ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	lines := make([]entity.DraftLine, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = entity.DraftLine{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Concept:     l.Concept,
		}
	}
	return e.PostManualEntry(ctx, ManualEntryInput{
		Date:    date,
		Concept: in.Concept,
		Lines:   lines,
		UserID:  userID,
	})
}

// ReverseFromRequest adapta el request HTTP a Reverse.
func (e *PostingEngine) ReverseFromRequest(ctx context.Context, userID string, exercise int, number int64, in dto.ReverseEntryRequest) (*entity.JournalEntry, error) {
	date, err := dto.ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return e.Reverse(ctx, ReverseInput{
		Exercise: exercise,
		Number:   number,
		Date:     date,
		Concept:  in.Concept,
		UserID:   userID,
	})
}

// ToEntryResponse convierte un asiento a su representación HTTP.
func ToEntryResponse(entry *entity.JournalEntry) dto.JournalEntryResponse {
	out := dto.JournalEntryResponse{
		ID:          entry.ID,
		Exercise:    entry.Exercise,
		Number:      entry.Number,
		Date:        dto.FormatDate(entry.Date),
		Concept:     entry.Concept,
		Source:      entry.Source,
		SourceRef:   entry.SourceRef,
		TotalDebit:  entry.TotalDebit(),
		TotalCredit: entry.TotalCredit(),
		Lines:       make([]dto.JournalLineResponse, len(entry.Lines)),
		CreatedBy:   entry.CreatedBy,
	}
	if entry.Reverses != nil {
		out.Reverses = &dto.EntryRefResponse{Exercise: entry.Reverses.Exercise, Number: entry.Reverses.Number}
	}
	for i, l := range entry.Lines {
		out.Lines[i] = dto.JournalLineResponse{
			LineNo:      l.LineNo,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Concept:     l.Concept,
		}
	}
	return out
}
