// Package web serves the ESAK calculator front end.
//
// The server is stateless: every calculation and every download is
// recomputed from the submitted parameters, so a parameter change can
// never show results from a previous configuration.
package web

import (
	"bytes"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/radkit/spekdose/devices"
	"github.com/radkit/spekdose/dose"
	"github.com/radkit/spekdose/export"
	"github.com/radkit/spekdose/spek"
	"github.com/radkit/spekdose/viz"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the calculator web application.
type Server struct {
	calc     *dose.Calculator
	devices  *devices.Manager
	exporter *export.Exporter
	tmpl     *template.Template
	log      *log.Logger
}

// NewServer wires the application around a spectrum engine.
func NewServer(eng spek.Engine, dm *devices.Manager, logger *log.Logger) (*Server, error) {
	calc, err := dose.New(eng)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parsing templates: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		calc:     calc,
		devices:  dm,
		exporter: export.New(),
		tmpl:     tmpl,
		log:      logger,
	}, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /calculate", s.handleCalculate)
	mux.HandleFunc("GET /export/json", s.handleExportJSON)
	mux.HandleFunc("GET /export/csv", s.handleExportCSV)
	mux.HandleFunc("GET /export/spectrum", s.handleExportSpectrum)
	mux.HandleFunc("GET /export/report", s.handleExportReport)

	return mux
}

// formState echoes the submitted values back into the form.
type formState struct {
	Device          string
	KVp             string
	MA              string
	TimeS           string
	AnodeAngle      string
	SSD             string
	FilterMaterial  string
	FilterThickness string
	FieldDiameter   string
	Phantom         string
}

func defaultForm() formState {
	return formState{
		KVp:             "120",
		MA:              "100",
		TimeS:           "0.1",
		AnodeAngle:      "12",
		SSD:             "100",
		FilterMaterial:  "Al",
		FilterThickness: "2.5",
	}
}

type page struct {
	Error       string
	Devices     []string
	Form        formState
	Result      *dose.Result
	SpectrumPNG string
	QualityPNG  string
	FalloffPNG  string
	Query       template.URL
}

func (s *Server) render(w http.ResponseWriter, p page) {
	p.Devices = s.devices.Names()

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", p); err != nil {
		s.log.Printf("web: rendering page: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, page{Form: defaultForm()})
}

func parseFloat(v url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return 0, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, raw)
	}

	return f, nil
}

// parseExposure builds an exposure from form or query values. A device
// preset contributes its anode angle and inherent filtration, with any
// explicit filter added on top.
func (s *Server) parseExposure(v url.Values) (dose.Exposure, error) {
	var exp dose.Exposure

	fields := []struct {
		key string
		dst *float64
	}{
		{"kvp", &exp.KVp},
		{"ma", &exp.MA},
		{"time_s", &exp.TimeS},
		{"anode_angle", &exp.AnodeAngleDeg},
		{"ssd_cm", &exp.SSDCM},
		{"field_diameter_cm", &exp.FieldDiameterCM},
	}

	for _, f := range fields {
		val, err := parseFloat(v, f.key)
		if err != nil {
			return dose.Exposure{}, err
		}

		*f.dst = val
	}

	exp.Phantom = strings.TrimSpace(v.Get("phantom"))

	if name := strings.TrimSpace(v.Get("device")); name != "" {
		dev, err := s.devices.Get(name)
		if err != nil {
			return dose.Exposure{}, err
		}

		exp.AnodeAngleDeg = dev.AnodeAngleDeg
		exp.Filters = append(exp.Filters, dev.Filters...)
	}

	mat := strings.TrimSpace(v.Get("filter_material"))
	mm, err := parseFloat(v, "filter_thickness_mm")
	if err != nil {
		return dose.Exposure{}, err
	}

	if mat != "" && mm > 0 {
		exp.Filters = append(exp.Filters, spek.Filter{Material: mat, ThicknessMM: mm})
	}

	return exp, nil
}

func formFromValues(v url.Values) formState {
	return formState{
		Device:          v.Get("device"),
		KVp:             v.Get("kvp"),
		MA:              v.Get("ma"),
		TimeS:           v.Get("time_s"),
		AnodeAngle:      v.Get("anode_angle"),
		SSD:             v.Get("ssd_cm"),
		FilterMaterial:  v.Get("filter_material"),
		FilterThickness: v.Get("filter_thickness_mm"),
		FieldDiameter:   v.Get("field_diameter_cm"),
		Phantom:         v.Get("phantom"),
	}
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, page{Error: "could not read the submitted form", Form: defaultForm()})

		return
	}

	form := formFromValues(r.PostForm)

	exp, err := s.parseExposure(r.PostForm)
	if err != nil {
		s.render(w, page{Error: err.Error(), Form: form})

		return
	}

	res, err := s.calc.Calculate(exp)
	if err != nil {
		s.log.Printf("web: calculation failed: %v", err)
		s.render(w, page{Error: "calculation failed: " + err.Error(), Form: form})

		return
	}

	p := page{
		Form:   form,
		Result: &res,
		Query:  template.URL(r.PostForm.Encode()),
	}

	if k, phi, err := s.calc.SpectrumData(exp); err == nil {
		var buf bytes.Buffer
		title := fmt.Sprintf("%g kVp spectrum at the skin", res.Exposure.KVp)

		if err := viz.RenderSpectrumPNG(&buf, k, phi, title); err == nil {
			p.SpectrumPNG = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}

	var buf bytes.Buffer
	if err := viz.RenderHVLPNG(&buf, res); err == nil {
		p.QualityPNG = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	buf.Reset()
	if err := viz.RenderDoseDistancePNG(&buf, res); err == nil {
		p.FalloffPNG = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	s.render(w, p)
}

// exportResult recomputes the result named by the query parameters.
func (s *Server) exportResult(w http.ResponseWriter, r *http.Request) (dose.Result, bool) {
	exp, err := s.parseExposure(r.URL.Query())
	if err == nil {
		var res dose.Result

		res, err = s.calc.Calculate(exp)
		if err == nil {
			return res, true
		}
	}

	s.log.Printf("web: export failed: %v", err)
	http.Error(w, "export failed: "+err.Error(), http.StatusBadRequest)

	return dose.Result{}, false
}

func serveDownload(w http.ResponseWriter, name, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(body)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	res, ok := s.exportResult(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.WriteResultsJSON(&buf, res); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	serveDownload(w, "xray_results.json", "application/json", buf.Bytes())
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := s.exportResult(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.WriteSummaryCSV(&buf, res); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	serveDownload(w, "xray_summary.csv", "text/csv", buf.Bytes())
}

func (s *Server) handleExportSpectrum(w http.ResponseWriter, r *http.Request) {
	exp, err := s.parseExposure(r.URL.Query())
	if err != nil {
		http.Error(w, "export failed: "+err.Error(), http.StatusBadRequest)

		return
	}

	k, phi, err := s.calc.SpectrumData(exp)
	if err != nil {
		http.Error(w, "export failed: "+err.Error(), http.StatusBadRequest)

		return
	}

	var buf bytes.Buffer
	if err := s.exporter.WriteSpectrumCSV(&buf, k, phi); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	serveDownload(w, "xray_spectrum.csv", "text/csv", buf.Bytes())
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.exportResult(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.WriteReport(&buf, res); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	serveDownload(w, "xray_report.txt", "text/plain; charset=utf-8", buf.Bytes())
}

// ListenAndServe runs the server on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Printf("web: listening on %s", addr)

	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web: server: %w", err)
	}

	return nil
}
