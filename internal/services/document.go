package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/voyago/trip-planner/internal/docs"
	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/store"
)

// DocumentService renders trip documents to disk and tracks their metadata.
type DocumentService struct {
	store    store.Store
	renderer *docs.Renderer
	dir      string
	log      zerolog.Logger
}

func NewDocumentService(st store.Store, renderer *docs.Renderer, dir string, log zerolog.Logger) *DocumentService {
	return &DocumentService{
		store:    st,
		renderer: renderer,
		dir:      dir,
		log:      log.With().Str("component", "document-service").Logger(),
	}
}

// ListDocuments returns metadata for every document rendered for the trip.
func (s *DocumentService) ListDocuments(ctx context.Context, tripID string) ([]*model.Document, error) {
	if _, err := s.store.Trips().Get(ctx, tripID); err != nil {
		return nil, err
	}
	list, err := s.store.Documents().ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Document{}
	}
	sortDocs(list)
	return list, nil
}

// GetDocument renders the requested document from the trip's current state,
// writes it under the document directory and upserts its metadata. Rendering
// on every read keeps the content consistent with the trip.
func (s *DocumentService) GetDocument(ctx context.Context, tripID string, typ model.DocumentType) (*model.Document, []byte, error) {
	if !typ.Valid() {
		return nil, nil, errors.Wrapf(model.ErrValidation, "unknown document type %q", typ)
	}
	trip, err := s.store.Trips().GetAggregate(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.renderer.Render(typ, tripData(trip))
	if err != nil {
		return nil, nil, err
	}
	path := filepath.Join(s.dir, tripID, fmt.Sprintf("%s.md", typ))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "create document directory")
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, nil, errors.Wrap(err, "write document")
	}
	meta, err := s.store.Documents().Put(ctx, &model.Document{
		TripID: tripID,
		Type:   typ,
		Path:   path,
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Debug().Str("trip_id", tripID).Str("type", string(typ)).Msg("document rendered")
	return meta, content, nil
}

// tripData flattens the aggregate into the renderer's view model.
func tripData(t *model.Trip) *docs.TripData {
	d := &docs.TripData{
		Title:       t.Title,
		Destination: t.Destination,
		StartDate:   t.StartDate.Format("2006-01-02"),
		EndDate:     t.EndDate.Format("2006-01-02"),
		Status:      string(t.Status),
		Adults:      t.Preferences.Adults,
		Children:    t.Preferences.Children,
		Currency:    t.Preferences.Currency,
		BudgetTotal: "0.00",
	}
	if t.Description != nil {
		d.Description = *t.Description
	}
	if t.Budget != nil {
		d.BudgetTotal = fmt.Sprintf("%.2f", t.Budget.Total)
		for _, cat := range []string{
			categoryActivities, categoryAccommodations,
			categoryTransportation, categoryFood, categoryMiscellaneous,
		} {
			if v, ok := t.Budget.Breakdown[cat]; ok {
				d.Breakdown = append(d.Breakdown, docs.BudgetLine{
					Category: cat,
					Amount:   fmt.Sprintf("%.2f", v),
				})
			}
		}
	}
	for i, day := range t.ItineraryDays {
		dd := docs.DayData{
			Number: i + 1,
			Date:   day.Date.Format("2006-01-02"),
			Notes:  day.Notes,
		}
		for _, a := range day.Activities {
			ad := docs.ActivityData{
				Name:   a.Name,
				Window: fmt.Sprintf("%s-%s", a.StartTime.Format("15:04"), a.EndTime.Format("15:04")),
				Cost:   fmt.Sprintf("%.2f %s", a.Cost, t.Preferences.Currency),
			}
			if a.Location != nil {
				ad.Location = *a.Location
			}
			dd.Activities = append(dd.Activities, ad)
		}
		if day.Accommodation != nil {
			dd.Stay = &docs.StayData{
				Name:     day.Accommodation.Name,
				Address:  day.Accommodation.Address,
				CheckIn:  day.Accommodation.CheckIn.Format("2006-01-02 15:04"),
				CheckOut: day.Accommodation.CheckOut.Format("2006-01-02 15:04"),
			}
		}
		d.Days = append(d.Days, dd)
	}
	return d
}
