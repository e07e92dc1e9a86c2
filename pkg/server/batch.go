package server

import (
	"net/http"

	"droscher.com/BeanJournal/pkg/journal"
	"droscher.com/BeanJournal/pkg/model"
)

type batchRequest struct {
	ProductID    *int     `json:"product_id"`
	RoastDate    string   `json:"roast_date"`
	PurchaseDate string   `json:"purchase_date"`
	AmountGrams  *float64 `json:"amount_grams"`
	Price        *float64 `json:"price"`
	Seller       string   `json:"seller"`
	Notes        string   `json:"notes"`
	Rating       *int     `json:"rating"`
	IsActive     *bool    `json:"is_active"`
}

func (b batchRequest) input() journal.BatchInput {
	return journal.BatchInput(b)
}

type brewSessionRequest struct {
	Timestamp      *model.Timestamp `json:"timestamp"`
	ProductID      *int             `json:"product_id"`
	ProductBatchID *int             `json:"product_batch_id"`

	BrewMethod   string `json:"brew_method"`
	BrewMethodID *int   `json:"brew_method_id"`
	Recipe       string `json:"recipe"`
	RecipeID     *int   `json:"recipe_id"`
	Grinder      string `json:"grinder"`
	GrinderID    *int   `json:"grinder_id"`
	Filter       string `json:"filter"`
	FilterID     *int   `json:"filter_id"`
	Kettle       string `json:"kettle"`
	KettleID     *int   `json:"kettle_id"`
	Scale        string `json:"scale"`
	ScaleID      *int   `json:"scale_id"`

	GrinderSetting     *string  `json:"grinder_setting"`
	AmountCoffeeGrams  *float64 `json:"amount_coffee_grams"`
	AmountWaterGrams   *float64 `json:"amount_water_grams"`
	BrewTemperatureC   *float64 `json:"brew_temperature_c"`
	BloomTimeSeconds   *int     `json:"bloom_time_seconds"`
	BrewTimeSeconds    *int     `json:"brew_time_seconds"`
	Sweetness          *int     `json:"sweetness"`
	Acidity            *int     `json:"acidity"`
	Bitterness         *int     `json:"bitterness"`
	Body               *int     `json:"body"`
	Aroma              *int     `json:"aroma"`
	FlavorProfileMatch *int     `json:"flavor_profile_match"`
	Score              *float64 `json:"score"`
	Notes              *string  `json:"notes"`
}

func (b brewSessionRequest) input() journal.BrewSessionInput {
	return journal.BrewSessionInput{
		Timestamp:          b.Timestamp,
		ProductID:          b.ProductID,
		ProductBatchID:     b.ProductBatchID,
		BrewMethod:         journal.EquipmentRef(b.BrewMethod, b.BrewMethodID),
		Recipe:             journal.EquipmentRef(b.Recipe, b.RecipeID),
		Grinder:            journal.EquipmentRef(b.Grinder, b.GrinderID),
		Filter:             journal.EquipmentRef(b.Filter, b.FilterID),
		Kettle:             journal.EquipmentRef(b.Kettle, b.KettleID),
		Scale:              journal.EquipmentRef(b.Scale, b.ScaleID),
		GrinderSetting:     b.GrinderSetting,
		AmountCoffeeGrams:  b.AmountCoffeeGrams,
		AmountWaterGrams:   b.AmountWaterGrams,
		BrewTemperatureC:   b.BrewTemperatureC,
		BloomTimeSeconds:   b.BloomTimeSeconds,
		BrewTimeSeconds:    b.BrewTimeSeconds,
		Sweetness:          b.Sweetness,
		Acidity:            b.Acidity,
		Bitterness:         b.Bitterness,
		Body:               b.Body,
		Aroma:              b.Aroma,
		FlavorProfileMatch: b.FlavorProfileMatch,
		Score:              b.Score,
		Notes:              b.Notes,
	}
}

func (s *JournalServer) registerBatchRoutes(mux *http.ServeMux) {
	s.handle(mux, "GET /api/batches/{id}", s.getBatch)
	s.handle(mux, "PUT /api/batches/{id}", s.updateBatch)
	s.handle(mux, "DELETE /api/batches/{id}", s.deleteBatch)
	s.handle(mux, "GET /api/batches/{id}/brew_sessions", s.listBatchBrewSessions)
	s.handle(mux, "POST /api/batches/{id}/brew_sessions", s.createBrewSession)
}

func (s *JournalServer) registerBrewSessionRoutes(mux *http.ServeMux) {
	s.handle(mux, "GET /api/brew_sessions", s.listBrewSessions)
	s.handle(mux, "GET /api/brew_sessions/{id}", s.getBrewSession)
	s.handle(mux, "PUT /api/brew_sessions/{id}", s.updateBrewSession)
	s.handle(mux, "DELETE /api/brew_sessions/{id}", s.deleteBrewSession)
}

func (s *JournalServer) listBatches(w http.ResponseWriter, r *http.Request) error {
	productID, err := pathID(r)
	if err != nil {
		return err
	}

	batches, err := s.journal.ListBatches(r.Context(), productID)
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, batches)

	return nil
}

func (s *JournalServer) createBatch(w http.ResponseWriter, r *http.Request) error {
	productID, err := pathID(r)
	if err != nil {
		return err
	}

	var request batchRequest
	if err := decode(r, &request); err != nil {
		return err
	}

	batch, err := s.journal.CreateBatch(r.Context(), productID, request.input())
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusCreated, batch)

	return nil
}

func (s *JournalServer) getBatch(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	batch, err := s.journal.GetBatch(r.Context(), id)
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, batch)

	return nil
}

func (s *JournalServer) updateBatch(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var request batchRequest
	if err := decode(r, &request); err != nil {
		return err
	}

	batch, err := s.journal.UpdateBatch(r.Context(), id, request.input())
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, batch)

	return nil
}

func (s *JournalServer) deleteBatch(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := s.journal.DeleteBatch(r.Context(), id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

func (s *JournalServer) listBrewSessions(w http.ResponseWriter, r *http.Request) error {
	sessions, err := s.journal.ListBrewSessions(r.Context())
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, sessions)

	return nil
}

func (s *JournalServer) listBatchBrewSessions(w http.ResponseWriter, r *http.Request) error {
	batchID, err := pathID(r)
	if err != nil {
		return err
	}

	sessions, err := s.journal.ListBatchBrewSessions(r.Context(), batchID)
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, sessions)

	return nil
}

func (s *JournalServer) createBrewSession(w http.ResponseWriter, r *http.Request) error {
	batchID, err := pathID(r)
	if err != nil {
		return err
	}

	var request brewSessionRequest
	if err := decode(r, &request); err != nil {
		return err
	}

	session, err := s.journal.CreateBrewSession(r.Context(), batchID, request.input())
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusCreated, session)

	return nil
}

func (s *JournalServer) getBrewSession(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	session, err := s.journal.GetBrewSession(r.Context(), id)
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, session)

	return nil
}

func (s *JournalServer) updateBrewSession(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var request brewSessionRequest
	if err := decode(r, &request); err != nil {
		return err
	}

	session, err := s.journal.UpdateBrewSession(r.Context(), id, request.input())
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, session)

	return nil
}

func (s *JournalServer) deleteBrewSession(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := s.journal.DeleteBrewSession(r.Context(), id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
