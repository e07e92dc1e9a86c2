package server

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"

	"droscher.com/BeanJournal/pkg/journal"
	"droscher.com/BeanJournal/pkg/lookup"
	"droscher.com/BeanJournal/pkg/model"
)

// nameList accepts a single name as well as an array of names.
type nameList []string

func (n *nameList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*n = nil
	case len(data) > 0 && data[0] == '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}

		*n = names
	default:
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}

		*n = nameList{name}
	}

	return nil
}

type productRequest struct {
	Roaster         string       `json:"roaster"`
	RoasterID       *int         `json:"roaster_id"`
	RoasterName     string       `json:"roaster_name"`
	BeanType        nameList     `json:"bean_type"`
	BeanTypeID      model.IDList `json:"bean_type_id"`
	Country         string       `json:"country"`
	CountryID       *int         `json:"country_id"`
	CountryName     string       `json:"country_name"`
	Region          nameList     `json:"region"`
	RegionID        model.IDList `json:"region_id"`
	DecafMethod     string       `json:"decaf_method"`
	DecafMethodID   *int         `json:"decaf_method_id"`
	DecafMethodName string       `json:"decaf_method_name"`

	ProductName string `json:"product_name"`
	RoastType   *int   `json:"roast_type"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ImageURL    string `json:"image_url"`
	Decaf       bool   `json:"decaf"`
	BeanProcess string `json:"bean_process"`
	Notes       string `json:"notes"`
	Rating      *int   `json:"rating"`
}

// refOf prefers the explicit "<field>_name" over the bare "<field>" value.
func refOf(id *int, name, bare string) lookup.Ref {
	if name == "" {
		name = bare
	}

	return lookup.ParseRef(id, name)
}

func (p productRequest) input() journal.ProductInput {
	return journal.ProductInput{
		Roaster:       refOf(p.RoasterID, p.RoasterName, p.Roaster),
		BeanTypeIDs:   p.BeanTypeID,
		BeanTypeNames: p.BeanType,
		Country:       refOf(p.CountryID, p.CountryName, p.Country),
		RegionIDs:     p.RegionID,
		RegionNames:   p.Region,
		DecafMethod:   refOf(p.DecafMethodID, p.DecafMethodName, p.DecafMethod),
		ProductName:   p.ProductName,
		RoastType:     p.RoastType,
		Description:   p.Description,
		URL:           p.URL,
		ImageURL:      p.ImageURL,
		Decaf:         p.Decaf,
		BeanProcess:   p.BeanProcess,
		Notes:         p.Notes,
		Rating:        p.Rating,
	}
}

func (s *JournalServer) registerProductRoutes(mux *http.ServeMux) {
	s.handle(mux, "GET /api/products", s.listProducts)
	s.handle(mux, "POST /api/products", s.createProduct)
	s.handle(mux, "GET /api/products/{id}", s.getProduct)
	s.handle(mux, "PUT /api/products/{id}", s.updateProduct)
	s.handle(mux, "DELETE /api/products/{id}", s.deleteProduct)
	s.handle(mux, "GET /api/products/{id}/batches", s.listBatches)
	s.handle(mux, "POST /api/products/{id}/batches", s.createBatch)
}

func (s *JournalServer) listProducts(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	products, err := s.journal.ListProducts(r.Context(), journal.ProductFilter{
		Roaster:  query.Get("roaster"),
		BeanType: query.Get("bean_type"),
		Country:  query.Get("country"),
	})
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, products)

	return nil
}

func (s *JournalServer) getProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	product, err := s.journal.GetProduct(r.Context(), id)
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, product)

	return nil
}

func (s *JournalServer) createProduct(w http.ResponseWriter, r *http.Request) error {
	var request productRequest
	if err := decode(r, &request); err != nil {
		return err
	}

	product, err := s.journal.CreateProduct(r.Context(), request.input())
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusCreated, product)

	return nil
}

func (s *JournalServer) updateProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var request productRequest
	if err := decode(r, &request); err != nil {
		return err
	}

	product, err := s.journal.UpdateProduct(r.Context(), id, request.input())
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, product)

	return nil
}

func (s *JournalServer) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := s.journal.DeleteProduct(r.Context(), id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
