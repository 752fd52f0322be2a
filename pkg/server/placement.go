package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	cerrors "github.com/cohis-dev/cohis/internal/errors"
	"github.com/cohis-dev/cohis/pkg/placement"
)

// maxPlacementBody bounds the placement request body.
const maxPlacementBody = 16 << 10

// edgeTolerance absorbs float rounding between a client's right/bottom and
// left+width/top+height.
const edgeTolerance = 0.01

var validate = validator.New(validator.WithRequiredStructEnabled())

// rectRequest accepts a full bounding box. Right and Bottom are optional and,
// when present, must agree with the origin and size.
type rectRequest struct {
	Left   float64  `json:"left"`
	Top    float64  `json:"top"`
	Right  *float64 `json:"right"`
	Bottom *float64 `json:"bottom"`
	Width  float64  `json:"width" validate:"gte=0"`
	Height float64  `json:"height" validate:"gte=0"`
}

// edgeMismatch returns the JSON name of the first derived edge that does not
// match, or "".
func (r rectRequest) edgeMismatch() (field string, got, want float64) {
	if r.Right != nil && math.Abs(*r.Right-(r.Left+r.Width)) > edgeTolerance {
		return "right", *r.Right, r.Left + r.Width
	}
	if r.Bottom != nil && math.Abs(*r.Bottom-(r.Top+r.Height)) > edgeTolerance {
		return "bottom", *r.Bottom, r.Top + r.Height
	}
	return "", 0, 0
}

type sizeRequest struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// placementRequest is the body of POST /api/v1/placement.
type placementRequest struct {
	Anchor      rectRequest  `json:"anchor"`
	Floating    sizeRequest  `json:"floating"`
	Side        string       `json:"side"`
	Gap         float64      `json:"gap" validate:"gte=0"`
	ArrowLength float64      `json:"arrowLength" validate:"gte=0"`
	Viewport    *sizeRequest `json:"viewport" validate:"required"`
}

// handlePlacement computes a placement without any session state. An
// unrecognized side is not an error; it yields the zero point.
func (s *Server) handlePlacement(w http.ResponseWriter, r *http.Request) {
	var req placementRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPlacementBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		placementDecodeError(err).WriteJSON(w, http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		placementValidationError(err).WriteJSON(w, http.StatusUnprocessableEntity)
		return
	}
	if field, got, want := req.Anchor.edgeMismatch(); field != "" {
		cerrors.New("E160").
			WithSource("anchor."+field).
			WithDetail(fmt.Sprintf("anchor.%s is %g but the origin and size give %g", field, got, want)).
			WriteJSON(w, http.StatusUnprocessableEntity)
		return
	}

	side := placement.ParseSide(req.Side)
	result := placement.Place(
		placement.RectXYWH(req.Anchor.Left, req.Anchor.Top, req.Anchor.Width, req.Anchor.Height),
		placement.Size{Width: req.Floating.Width, Height: req.Floating.Height},
		side,
		placement.Offsets{Gap: req.Gap, ArrowLength: req.ArrowLength},
		placement.Viewport{Width: req.Viewport.Width, Height: req.Viewport.Height},
	)

	label := string(side)
	if !side.Valid() {
		label = "unknown"
		s.logger.Debug("placement with unknown side", "side", req.Side)
	}
	s.metrics.RecordPlacement(label)

	writeJSON(w, http.StatusOK, result)
}

// placementDecodeError describes why the body could not be decoded. Unknown
// fields and type mismatches name the offending field.
func placementDecodeError(err error) *cerrors.Error {
	e := cerrors.New("E161").Wrap(err)
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		e.WithDetail("The request body is not valid JSON.")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		e.WithSource(field).WithDetail("unknown field " + field)
	case errors.As(err, &typeErr):
		e.WithSource(typeErr.Field).WithDetail(typeErr.Field + " must be a " + typeErr.Type.String())
	}
	return e
}

// placementValidationError names the first failing field, e.g.
// "anchor.width failed gte".
func placementValidationError(err error) *cerrors.Error {
	e := cerrors.New("E160").Wrap(err)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := jsonPath(fe.StructNamespace())
		e.WithSource(field).WithDetail(field + " failed " + fe.Tag())
	}
	return e
}

// jsonPath turns "placementRequest.Anchor.Width" into "anchor.width".
func jsonPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p == "ArrowLength" {
			parts[i] = "arrowLength"
			continue
		}
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
