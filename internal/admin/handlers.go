package admin

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"tg-antijudi/internal/models"
	"tg-antijudi/internal/sanction"
	"tg-antijudi/internal/service"
)

type reclassifyRequest struct {
	GroupID    int64  `json:"group_id" binding:"required"`
	MessageIDs []int  `json:"message_ids"`
	Target     string `json:"target" binding:"required,oneof=violating clean"`
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

// Applied is false when no group accepted the action.
type outcomeResponse struct {
	Action    string           `json:"action"`
	Applied   bool             `json:"applied"`
	Succeeded []int64          `json:"succeeded"`
	Skipped   []int64          `json:"skipped"`
	Failed    map[int64]string `json:"failed"`
}

func outcomeOf(out sanction.Outcome) outcomeResponse {
	resp := outcomeResponse{
		Action:    out.Action,
		Applied:   out.Any(),
		Succeeded: append([]int64{}, out.Succeeded...),
		Skipped:   append([]int64{}, out.Skipped...),
		Failed:    make(map[int64]string, len(out.Failed)),
	}
	for id, err := range out.Failed {
		resp.Failed[id] = err.Error()
	}
	return resp
}

type logEntry struct {
	UserID  int64                  `json:"user_id"`
	Count   int                    `json:"count"`
	Records []models.MessageRecord `json:"records"`
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		abortWithError(c, fmt.Errorf("%w: invalid user id %q", models.ErrInvalidArgument, c.Param("id")))
		return 0, false
	}
	return id, true
}

// GET /api/groups
func (s *Server) listGroups(c *gin.Context) {
	groups, err := s.mod.ActiveGroups(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	list := make([]models.GroupInfo, 0, len(groups))
	for _, id := range groups.IDs() {
		list = append(list, groups[id])
	}
	c.JSON(http.StatusOK, gin.H{"groups": list})
}

func (s *Server) listLog(c *gin.Context, kind models.LogKind) {
	filter, err := service.ParseLogFilter(c.Query("group"), c.Query("date"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	logs, err := s.mod.Logs(c.Request.Context(), kind)
	if err != nil {
		abortWithError(c, err)
		return
	}
	logs = filter.Apply(logs)
	entries := make([]logEntry, 0, len(logs))
	for _, id := range logs.Users() {
		entries = append(entries, logEntry{UserID: id, Count: len(logs[id]), Records: logs[id]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	c.JSON(http.StatusOK, gin.H{"users": entries})
}

// GET /api/violations?group=&date=
func (s *Server) listViolations(c *gin.Context) {
	s.listLog(c, models.LogViolating)
}

// GET /api/clean?group=&date=
func (s *Server) listClean(c *gin.Context) {
	s.listLog(c, models.LogClean)
}

// GET /api/stats
func (s *Server) stats(c *gin.Context) {
	st, err := s.mod.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/mutes
func (s *Server) listMutes(c *gin.Context) {
	mutes, err := s.mod.Mutes(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mutes": mutes})
}

// GET /api/bans
func (s *Server) listBans(c *gin.Context) {
	bans, err := s.mod.Bans(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bans": bans})
}

// GET /api/verified
func (s *Server) listVerified(c *gin.Context) {
	verified, err := s.mod.VerifiedUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": verified})
}

// GET /api/users/:id
func (s *Server) getUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	sum, err := s.mod.UserSummary(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// POST /api/users/:id/reclassify
func (s *Server) reclassify(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req reclassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err))
		return
	}
	moved, err := s.mod.Reclassify(c.Request.Context(), id, req.GroupID, req.MessageIDs, models.LogKind(req.Target))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}

// POST /api/users/:id/message
func (s *Server) sendMessage(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err))
		return
	}
	if err := s.mod.SendDirect(c.Request.Context(), id, req.Text); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

func (s *Server) applySanction(c *gin.Context, run func(c *gin.Context, userID int64) (sanction.Outcome, error)) {
	id, ok := userID(c)
	if !ok {
		return
	}
	out, err := run(c, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeOf(out))
}

// POST /api/users/:id/mute
func (s *Server) mute(c *gin.Context) {
	s.applySanction(c, func(c *gin.Context, id int64) (sanction.Outcome, error) {
		return s.mod.Mute(c.Request.Context(), id)
	})
}

// DELETE /api/users/:id/mute
func (s *Server) unmute(c *gin.Context) {
	s.applySanction(c, func(c *gin.Context, id int64) (sanction.Outcome, error) {
		return s.mod.Unmute(c.Request.Context(), id)
	})
}

// POST /api/users/:id/ban
func (s *Server) ban(c *gin.Context) {
	s.applySanction(c, func(c *gin.Context, id int64) (sanction.Outcome, error) {
		return s.mod.Ban(c.Request.Context(), id)
	})
}

// DELETE /api/users/:id/ban
func (s *Server) unban(c *gin.Context) {
	s.applySanction(c, func(c *gin.Context, id int64) (sanction.Outcome, error) {
		return s.mod.Unban(c.Request.Context(), id)
	})
}
