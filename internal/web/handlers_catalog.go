package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
)

// DatasetsResponse lists the datasets of the published catalog.
type DatasetsResponse struct {
	Catalog  string                   `json:"catalog"`
	Datasets []catalog.DatasetSummary `json:"datasets"`
}

// ResolveResponse is the leaf an identity resolves to.
type ResolveResponse struct {
	Requested catalog.Identity `json:"requested"`
	Leaf      catalog.LeafView `json:"leaf"`
}

// handleListDatasets returns every dataset and its versions.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	cat := s.service.Catalog()
	writeJSON(w, http.StatusOK, DatasetsResponse{
		Catalog:  cat.Fingerprint(),
		Datasets: cat.Summaries(),
	})
}

// handleGetDataset returns the full contract tree of one dataset.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	cat := s.service.Catalog()
	name := chi.URLParam(r, "dataset")

	ds, ok := cat.Dataset(name)
	if !ok {
		s.fail(w, r, cat.UnknownDataset(name))
		return
	}
	writeJSON(w, http.StatusOK, ds.Describe())
}

// handleResolve resolves ?dataset=&version=&level=&form= to a leaf.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := identityFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	leaf, err := s.service.Catalog().Resolve(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{Requested: id, Leaf: leaf.Describe()})
}

func identityFromQuery(r *http.Request) (catalog.Identity, error) {
	q := r.URL.Query()
	id := catalog.Identity{Dataset: q.Get("dataset"), Version: q.Get("version")}
	if id.Dataset == "" || id.Version == "" {
		return id, invalidRequest("dataset and version are required")
	}
	for _, p := range []struct {
		name string
		dst  **int
	}{{"level", &id.Level}, {"form", &id.Form}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return id, invalidRequest("%s %q is not an integer", p.name, raw)
		}
		*p.dst = catalog.Int(n)
	}
	return id, nil
}
