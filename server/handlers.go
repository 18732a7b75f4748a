package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"racedesk/document"
	"racedesk/generator"
	"racedesk/layout"
	"racedesk/publisher"
	"racedesk/store"
)

var errSessionNotFound = errors.New("session not found")

type sessionHandler func(c *gin.Context, sess *generator.Session)

func (s *Server) withSession(h sessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.sessions.get(c.Param("id"))
		if !ok {
			RespondError(c, http.StatusNotFound, "not_found", errSessionNotFound)
			return
		}
		h(c, sess)
	}
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return false
	}
	return true
}

// --- Requests / responses ---

type generateReq struct {
	Raw string `json:"raw"`
}

type instructReq struct {
	Instruction string `json:"instruction"`
	Selection   string `json:"selection"`
}

type targetReq struct {
	Target string `json:"target"`
}

type layoutReq struct {
	Layout string `json:"layout"`
}

type fieldReq struct {
	Value string `json:"value"`
}

type saveBuildReq struct {
	Name string `json:"name"`
}

type outcomeResp struct {
	Outcome generator.Outcome `json:"outcome"`
	State   generator.State   `json:"state"`
}

type changeResp struct {
	Changed bool            `json:"changed"`
	State   generator.State `json:"state"`
}

type buildsResp struct {
	Builds []store.Build `json:"builds"`
}

// --- Handlers ---

func (s *Server) handleHealth(c *gin.Context) {
	RespondOK(c, s.agent.Invoker().Health(c.Request.Context()))
}

func (s *Server) handleSessionCreate(c *gin.Context) {
	sess := generator.NewSession("", s.agent, s.undoCap, s.log)
	s.sessions.set(sess.ID, sess)
	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleSessionGet(c *gin.Context, sess *generator.Session) {
	RespondOK(c, sess.Snapshot())
}

func (s *Server) handleSessionDelete(c *gin.Context) {
	if !s.sessions.delete(c.Param("id")) {
		RespondError(c, http.StatusNotFound, "not_found", errSessionNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGenerate(c *gin.Context, sess *generator.Session) {
	var req generateReq
	if !bindJSON(c, &req) {
		return
	}
	out, err := sess.Generate(c.Request.Context(), req.Raw)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, outcomeResp{Outcome: out, State: sess.Snapshot()})
}

func (s *Server) handleInstruct(c *gin.Context, sess *generator.Session) {
	var req instructReq
	if !bindJSON(c, &req) {
		return
	}
	out, err := sess.Instruct(c.Request.Context(), req.Instruction, req.Selection)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, outcomeResp{Outcome: out, State: sess.Snapshot()})
}

func (s *Server) handleUndo(c *gin.Context, sess *generator.Session) {
	undone, err := sess.Undo()
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, changeResp{Changed: undone, State: sess.Snapshot()})
}

func (s *Server) handleReset(c *gin.Context, sess *generator.Session) {
	if err := sess.Reset(); err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, sess.Snapshot())
}

func (s *Server) handleTarget(c *gin.Context, sess *generator.Session) {
	var req targetReq
	if !bindJSON(c, &req) {
		return
	}
	t, err := document.ParseTarget(req.Target)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	sess.SetTarget(t)
	RespondOK(c, sess.Snapshot())
}

func (s *Server) handleLayout(c *gin.Context, sess *generator.Session) {
	var req layoutReq
	if !bindJSON(c, &req) {
		return
	}
	o, err := layout.ParseOverride(req.Layout)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	sess.SetLayout(o)
	RespondOK(c, sess.Snapshot())
}

func (s *Server) handleMedia(c *gin.Context, sess *generator.Session) {
	var media document.Document
	if !bindJSON(c, &media) {
		return
	}
	if err := sess.SetMedia(media); err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, sess.Snapshot())
}

func (s *Server) handleField(c *gin.Context, sess *generator.Session) {
	field, err := document.ParseField(c.Param("field"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req fieldReq
	if !bindJSON(c, &req) {
		return
	}
	changed, err := sess.Edit(field, req.Value)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, changeResp{Changed: changed, State: sess.Snapshot()})
}

func (s *Server) handleExport(c *gin.Context, sess *generator.Session) {
	format, err := publisher.ParseFormat(c.Query("format"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	st := sess.Snapshot()
	out, err := publisher.Render(st.Document, st.Template, format)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), out)
}

func (s *Server) handleBuildSave(c *gin.Context, sess *generator.Session) {
	var req saveBuildReq
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	st := sess.Snapshot()
	b, err := s.builds.Save(c.Request.Context(), req.Name, st.Document, st.Messages, st.Model)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *Server) handleBuildLoad(c *gin.Context, sess *generator.Session) {
	b, err := s.builds.Get(c.Request.Context(), c.Param("buildID"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if err := sess.Load(b.Document, b.Messages, b.Model); err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, sess.Snapshot())
}

func (s *Server) handleBuildList(c *gin.Context) {
	builds, err := s.builds.List(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if builds == nil {
		builds = []store.Build{}
	}
	RespondOK(c, buildsResp{Builds: builds})
}

func (s *Server) handleBuildGet(c *gin.Context) {
	b, err := s.builds.Get(c.Request.Context(), c.Param("buildID"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, b)
}

func (s *Server) handleBuildDuplicate(c *gin.Context) {
	b, err := s.builds.Duplicate(c.Request.Context(), c.Param("buildID"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}
