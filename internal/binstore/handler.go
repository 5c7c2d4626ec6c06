package binstore

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"
)

const maxRecordBytes = 1 << 20

type metadata struct {
	ID        string `json:"id,omitempty"`
	ParentID  string `json:"parentId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	Private   bool   `json:"private"`
}

type binResponse struct {
	Record   json.RawMessage `json:"record"`
	Metadata metadata        `json:"metadata"`
}

type Handler struct {
	repo      *Repository
	masterKey string
	l         pkgLog.Logger
}

func NewHandler(repo *Repository, masterKey string, l pkgLog.Logger) *Handler {
	return &Handler{repo: repo, masterKey: masterKey, l: l}
}

func (h *Handler) requireKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.masterKey != "" && c.Request().Header.Get("X-Master-Key") != h.masterKey {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid X-Master-Key")
		}
		return next(c)
	}
}

func (h *Handler) CreateBin(c echo.Context) error {
	record, err := readRecord(c)
	if err != nil {
		return err
	}

	bin, err := h.repo.Create(c.Request().Context(), record)
	if err != nil {
		h.l.Errorf(c.Request().Context(), "binstore: create failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create bin")
	}

	return c.JSON(http.StatusOK, binResponse{
		Record: record,
		Metadata: metadata{
			ID:        bin.ID,
			CreatedAt: bin.CreatedAt.Format(time.RFC3339Nano),
			Private:   true,
		},
	})
}

func (h *Handler) ReadLatest(c echo.Context) error {
	bin, err := h.repo.Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(http.StatusOK, binResponse{
		Record: json.RawMessage(bin.Record),
		Metadata: metadata{
			ID:        bin.ID,
			CreatedAt: bin.CreatedAt.Format(time.RFC3339Nano),
			Private:   true,
		},
	})
}

func (h *Handler) UpdateBin(c echo.Context) error {
	record, err := readRecord(c)
	if err != nil {
		return err
	}

	bin, err := h.repo.Replace(c.Request().Context(), c.Param("id"), record)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(http.StatusOK, binResponse{
		Record:   record,
		Metadata: metadata{ParentID: bin.ID, Private: true},
	})
}

func (h *Handler) lookupError(c echo.Context, err error) error {
	if errors.Is(err, ErrBinNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "bin not found")
	}
	h.l.Errorf(c.Request().Context(), "binstore: lookup failed: %v", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "failed to read bin")
}

func readRecord(c echo.Context) (json.RawMessage, error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRecordBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	if len(raw) > maxRecordBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "bin exceeds size limit")
	}
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	return json.RawMessage(raw), nil
}
