package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swasthya/internal/guidance"
)

// GuidanceHandler serves the static health guidance tables and the symptom
// checker.  None of these touch storage.
type GuidanceHandler struct{}

func NewGuidanceHandler() *GuidanceHandler { return &GuidanceHandler{} }

type analyzeReq struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type eligibilityReq struct {
	Income   string `json:"income" validate:"omitempty,oneof=low medium high"`
	Pregnant bool   `json:"pregnant"`
}

// AnalyzeSymptoms: POST /v1/symptoms/analyze.
func (h *GuidanceHandler) AnalyzeSymptoms(c echo.Context) error {
	var req analyzeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please speak or type your health issue"})
	}
	lang := req.Lang
	if lang == "" {
		lang = c.QueryParam("lang")
	}
	return c.JSON(http.StatusOK, guidance.Analyze(req.Text, guidance.ParseLang(lang)))
}

// FirstAid: GET /v1/first-aid?lang=.
func (h *GuidanceHandler) FirstAid(c echo.Context) error {
	lang := guidance.ParseLang(c.QueryParam("lang"))
	return c.JSON(http.StatusOK, echo.Map{
		"lang":  lang,
		"cards": guidance.FirstAid(lang),
	})
}

// MaternalChild: GET /v1/maternal-child.
func (h *GuidanceHandler) MaternalChild(c echo.Context) error {
	return c.JSON(http.StatusOK, guidance.MaternalChild())
}

// Schemes: GET /v1/schemes.
func (h *GuidanceHandler) Schemes(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"schemes": guidance.Schemes()})
}

// Scheme: GET /v1/schemes/:id.
func (h *GuidanceHandler) Scheme(c echo.Context) error {
	s, ok := guidance.SchemeByID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "scheme not found"})
	}
	return c.JSON(http.StatusOK, s)
}

// Eligibility: POST /v1/schemes/eligibility.
func (h *GuidanceHandler) Eligibility(c echo.Context) error {
	var req eligibilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Income = strings.ToLower(strings.TrimSpace(req.Income))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "income must be one of low, medium, high",
			"fields": invalidFields(err),
		})
	}
	return c.JSON(http.StatusOK, guidance.CheckEligibility(guidance.EligibilityRequest{
		Income:   req.Income,
		Pregnant: req.Pregnant,
	}))
}
