package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"studypartner"
)

const sessionCookie = "study-session"

// Server exposes the quiz core as a JSON API. Each browser session gets
// its own isolated studypartner.Session, keyed by a cookie-held id; the
// material store and the history ledger are shared process-wide, with
// history rows scoped per session.
type Server struct {
	cfg       *studypartner.Config
	log       zerolog.Logger
	cookies   *sessions.CookieStore
	generator *studypartner.QuizGenerator
	store     *studypartner.QuizStore
	ledger    *studypartner.HistoryLedger

	mu       sync.Mutex
	sessions map[string]*studypartner.Session
}

func main() {
	cfg := studypartner.LoadConfig()
	log := studypartner.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	// Quiz generation is this server's reason to exist; refuse to start
	// without a credential rather than fail on the first request.
	if cfg.APIKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY environment variable is required")
	}

	ledger, err := studypartner.OpenHistory(cfg.HistoryDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history ledger")
	}
	defer ledger.Close()

	client := studypartner.NewCompletionClient(cfg, log)

	server := &Server{
		cfg:       cfg,
		log:       log,
		cookies:   sessions.NewCookieStore([]byte(cfg.SessionSecret)),
		generator: studypartner.NewQuizGenerator(client, log),
		store:     studypartner.NewQuizStore(),
		ledger:    ledger,
		sessions:  make(map[string]*studypartner.Session),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/materials", server.handleAddMaterial)
	mux.HandleFunc("GET /api/materials", server.handleListMaterials)
	mux.HandleFunc("DELETE /api/materials/{id}", server.handleDeleteMaterial)
	mux.HandleFunc("POST /api/materials/clear", server.handleClearMaterials)
	mux.HandleFunc("POST /api/materials/{id}/generate", server.handleGenerate)
	mux.HandleFunc("POST /api/quiz/{id}/select", server.handleSelectQuiz)
	mux.HandleFunc("POST /api/quiz/answer", server.handleAnswer)
	mux.HandleFunc("POST /api/quiz/submit", server.handleSubmit)
	mux.HandleFunc("POST /api/quiz/retake", server.handleRetake)
	mux.HandleFunc("POST /api/home", server.handleGoHome)
	mux.HandleFunc("GET /api/session", server.handleSessionState)
	mux.HandleFunc("PUT /api/session/questions", server.handleSetNumQuestions)
	mux.HandleFunc("GET /api/history", server.handleHistory)
	mux.HandleFunc("POST /api/history/clear", server.handleClearHistory)

	log.Info().Str("port", cfg.ServerPort).Str("model", cfg.Model).Msg("Starting study partner server")
	if err := http.ListenAndServe(":"+cfg.ServerPort, mux); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// controller resolves the caller's session (creating it on first
// access) and wraps it in a Controller. The cookie carries only an
// opaque session id; all state lives server-side.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*studypartner.Controller, error) {
	cookie, _ := s.cookies.Get(r, sessionCookie)

	sid, _ := cookie.Values["sid"].(string)
	if sid == "" {
		sid = uuid.NewString()
		cookie.Values["sid"] = sid
		if err := cookie.Save(r, w); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	sess, ok := s.sessions[sid]
	if !ok {
		sess = studypartner.NewSession()
		sess.SetNumQuestions(s.cfg.NumQuestions)
		s.sessions[sid] = sess
	}
	s.mu.Unlock()

	return studypartner.NewController(sid, sess, s.store, s.ledger), nil
}

func (s *Server) handleAddMaterial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	material, err := s.store.AddMaterial(req.Text)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, material)
}

type materialView struct {
	studypartner.Material
	NumQuestions int  `json:"num_questions,omitempty"`
	QuizReady    bool `json:"quiz_ready"`
}

func (s *Server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials := s.store.Materials()
	views := make([]materialView, 0, len(materials))
	for _, m := range materials {
		v := materialView{Material: m}
		if quiz, ok := s.store.Quiz(m.ID); ok {
			v.QuizReady = true
			v.NumQuestions = len(quiz.Questions)
		}
		views = append(views, v)
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	if !s.store.DeleteMaterial(r.PathValue("id")) {
		s.writeError(w, http.StatusNotFound, studypartner.ErrMaterialNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearMaterials(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	quiz, err := ctrl.Generate(ctx, s.generator, r.PathValue("id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"quiz_id":       quiz.ID,
		"material_id":   quiz.MaterialID,
		"num_questions": len(quiz.Questions),
	})
}

// questionView hides the answer and explanation until submission.
type questionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

func (s *Server) handleSelectQuiz(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	materialID := r.PathValue("id")
	if err := ctrl.SelectQuiz(materialID); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	quiz, _ := s.store.Quiz(materialID)
	views := make([]questionView, len(quiz.Questions))
	for i, q := range quiz.Questions {
		views[i] = questionView{Question: q.Question, Options: q.Options}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"quiz_id":   quiz.ID,
		"questions": views,
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	var req struct {
		Index  int    `json:"index"`
		Option string `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := ctrl.Answer(req.Index, req.Option); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"answered": ctrl.AnsweredCount(),
	})
}

type gradedQuestion struct {
	Question    string `json:"question"`
	YourAnswer  string `json:"your_answer"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
	Correct     bool   `json:"correct"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	attempt, err := ctrl.Submit()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	quiz, _ := s.store.Quiz(ctrl.Session().CurrentQuizID)
	graded := make([]gradedQuestion, len(quiz.Questions))
	for i, q := range quiz.Questions {
		choice := attempt.Choices[i]
		graded[i] = gradedQuestion{
			Question:    q.Question,
			YourAnswer:  choice,
			Answer:      q.Answer,
			Explanation: q.Explanation,
			Correct:     choice == q.Answer,
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"correct":   attempt.Correct,
		"total":     attempt.Total,
		"score":     attempt.Score(),
		"message":   scoreMessage(attempt.Score()),
		"questions": graded,
	})
}

func scoreMessage(score float64) string {
	switch {
	case score >= 80:
		return "Excellent work!"
	case score >= 60:
		return "Good job!"
	default:
		return "Keep studying!"
	}
}

func (s *Server) handleRetake(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := ctrl.Retake(); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoHome(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.GoHome()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":   ctrl.Session(),
		"answered":  ctrl.AnsweredCount(),
		"materials": s.store.Len(),
		"quizzes":   s.store.QuizCount(),
	})
}

func (s *Server) handleSetNumQuestions(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	var req struct {
		NumQuestions int `json:"num_questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	ctrl.Session().SetNumQuestions(req.NumQuestions)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"num_questions": ctrl.Session().NumQuestions,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	sid := ctrl.SessionID()

	stats, err := s.ledger.Stats(sid)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	recent, err := s.ledger.Recent(sid, 20)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":  stats,
		"recent": recent,
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.controller(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.ledger.Clear(ctrl.SessionID()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	if perr, ok := studypartner.AsPipelineError(err); ok {
		body["code"] = string(perr.Code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps core errors to HTTP statuses. Upstream generation
// failures come back as 502 so clients can tell them from caller
// mistakes.
func statusFor(err error) int {
	if perr, ok := studypartner.AsPipelineError(err); ok {
		if perr.Code == studypartner.ErrCodeInvalidRequest {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, studypartner.ErrMaterialNotFound),
		errors.Is(err, studypartner.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, studypartner.ErrQuizIncomplete),
		errors.Is(err, studypartner.ErrNotInQuiz),
		errors.Is(err, studypartner.ErrNotInResults),
		errors.Is(err, studypartner.ErrBadQuestion),
		errors.Is(err, studypartner.ErrEmptyMaterial):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
