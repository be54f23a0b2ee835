package devserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	historyLayout    = "2006-01-02T15:04:05.999999"
	birthDateLayout  = "02/01/2006"
	storedDateLayout = "2006-01-02"

	defaultGoal         = "Não definida"
	defaultHeightWeight = "-- / --"
	noBirthDate         = "--/--/----"
)

// firstOf returns the first non-blank value.
func firstOf(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// registerReq accepts both the English and the Portuguese field names.
type registerReq struct {
	FirstName string `json:"first_name"`
	Nome      string `json:"nome"`
	LastName  string `json:"last_name"`
	Sobrenome string `json:"sobrenome"`
	BirthDate string `json:"birth_date"`
	DataNasc  string `json:"data_nascimento"`
	Gender    string `json:"gender"`
	Genero    string `json:"genero"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Senha     string `json:"senha"`
}

func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "JSON inválido")
		return
	}
	u := user{
		FirstName: firstOf(req.FirstName, req.Nome),
		LastName:  firstOf(req.LastName, req.Sobrenome),
		BirthDate: firstOf(req.BirthDate, req.DataNasc),
		Gender:    firstOf(req.Gender, req.Genero),
		Email:     strings.TrimSpace(req.Email),
	}
	password := firstOf(req.Password, req.Senha)
	if u.FirstName == "" || u.LastName == "" || u.Email == "" || password == "" {
		fail(c, http.StatusBadRequest, "Campos obrigatórios ausentes")
		return
	}

	created, err := s.state.register(u, password)
	switch {
	case errors.Is(err, errEmailTaken):
		fail(c, http.StatusConflict, "Email já cadastrado")
		return
	case err != nil:
		s.log.Error(c.Request.Context(), "register failed", "error", err)
		fail(c, http.StatusInternalServerError, "Erro interno ao criar conta")
		return
	}
	s.log.Info(c.Request.Context(), "user registered", "user_id", created.ID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Conta criada com sucesso!"})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Senha    string `json:"senha"`
}

func displayName(u user) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "JSON inválido")
		return
	}
	password := firstOf(req.Password, req.Senha)
	if strings.TrimSpace(req.Email) == "" || password == "" {
		fail(c, http.StatusBadRequest, "Email e senha são obrigatórios")
		return
	}

	u, err := s.state.authenticate(req.Email, password)
	if err != nil {
		fail(c, http.StatusUnauthorized, "Email ou senha inválidos")
		return
	}
	tok, err := GenerateToken(u.ID, []byte(s.cfg.Secret), s.cfg.SessionTTL)
	if err != nil {
		s.log.Error(c.Request.Context(), "sign session token", "error", err)
		fail(c, http.StatusInternalServerError, "Erro interno")
		return
	}
	s.setSessionCookie(c, tok, int(s.cfg.SessionTTL/time.Second))

	c.JSON(http.StatusOK, gin.H{
		"message": "Login realizado com sucesso!",
		"user":    gin.H{"id": u.ID, "nome": displayName(*u), "email": u.Email},
	})
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, value, maxAge, "/", "", false, true)
}

func (s *Server) logout(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logout realizado"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// historyKey scopes a chat session to its owner.
func historyKey(userID int64, sessionID string) string {
	return strconv.FormatInt(userID, 10) + ":" + sessionID
}

func (s *Server) chatSessionID(c *gin.Context, fallback string) string {
	return firstOf(c.GetHeader(common.SessionIDHeaderName), fallback)
}

func (s *Server) recordExchange(userID int64, sessionID, question, answer string) {
	now := s.state.now().Format(historyLayout)
	s.state.appendTurns(historyKey(userID, sessionID),
		turn{Type: common.HistoryTypeHuman, Content: question, Timestamp: now},
		turn{Type: "ai", Content: answer, Timestamp: now},
	)
}

type chatReq struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "JSON inválido")
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		fail(c, http.StatusBadRequest, "Mensagem vazia")
		return
	}
	sid := s.chatSessionID(c, req.SessionID)
	if sid == "" {
		sid = uuid.NewString()
	}

	answer := reply(msg)
	s.recordExchange(c.GetInt64(ctxUserID), sid, msg, answer)
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": sid, "response": answer})
}

func (s *Server) chatHistory(c *gin.Context) {
	sid := s.chatSessionID(c, c.Query("session_id"))
	history := []turn{}
	if sid != "" {
		history = s.state.turns(historyKey(c.GetInt64(ctxUserID), sid))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}

func (s *Server) analyzeImage(c *gin.Context) {
	sid := s.chatSessionID(c, c.PostForm("session_id"))
	if sid == "" {
		sid = uuid.NewString()
	}

	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "Nenhum arquivo enviado")
		return
	}
	if fh.Filename == "" {
		fail(c, http.StatusBadRequest, "Nenhum arquivo selecionado")
		return
	}
	msgType := c.DefaultPostForm("message_type", common.HistoryTypeHuman)
	if msgType != common.HistoryTypeHuman && msgType != "ai" {
		fail(c, http.StatusBadRequest, "message_type inválido")
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	defer f.Close()
	n, err := io.Copy(io.Discard, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	answer := analysis(fh.Filename, int(n))
	s.recordExchange(c.GetInt64(ctxUserID), sid, "[image] "+fh.Filename, answer)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"session_id":   sid,
		"message_type": msgType,
		"response":     answer,
	})
}

// normalizeKind maps any tab or kind spelling to "treino" or "dieta".
func normalizeKind(raw string) string {
	if strings.Contains(strings.ToLower(raw), common.KindWorkout) {
		return common.KindWorkout
	}
	return common.KindMeal
}

func (s *Server) listItems(c *gin.Context) {
	kind := normalizeKind(c.DefaultQuery("tipo", "treinos"))
	c.JSON(http.StatusOK, gin.H{"success": true, "items": s.state.listItems(c.GetInt64(ctxUserID), kind)})
}

type itemReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Kind        string `json:"tipo"`
}

func (s *Server) createItem(c *gin.Context) {
	var req itemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "JSON inválido")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.Kind) == "" {
		fail(c, http.StatusBadRequest, "Campos obrigatórios ausentes")
		return
	}

	it := s.state.addItem(c.GetInt64(ctxUserID), item{
		Title:       req.Title,
		Description: req.Description,
		Time:        req.Time,
		Kind:        normalizeKind(req.Kind),
	})
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Item adicionado com sucesso!",
		"id":      it.ID,
		"item":    it,
	})
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusNotFound, "Item não encontrado")
		return 0, false
	}
	return id, true
}

func (s *Server) updateItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req itemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "JSON inválido")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		fail(c, http.StatusBadRequest, "Campos obrigatórios ausentes")
		return
	}

	patch := item{Title: req.Title, Description: req.Description, Time: req.Time}
	if strings.TrimSpace(req.Kind) != "" {
		patch.Kind = normalizeKind(req.Kind)
	}
	if err := s.state.updateItem(c.GetInt64(ctxUserID), id, patch); err != nil {
		fail(c, http.StatusNotFound, "Item não encontrado")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item atualizado com sucesso!"})
}

func (s *Server) deleteItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := s.state.deleteItem(c.GetInt64(ctxUserID), id); err != nil {
		fail(c, http.StatusNotFound, "Item não encontrado")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item excluído com sucesso!"})
}

// displayBirthDate renders a stored date as dd/mm/yyyy.
func displayBirthDate(raw string) string {
	for _, layout := range []string{storedDateLayout, birthDateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(birthDateLayout)
		}
	}
	return noBirthDate
}

func (s *Server) getProfile(c *gin.Context) {
	u, err := s.state.user(c.GetInt64(ctxUserID))
	if err != nil {
		fail(c, http.StatusNotFound, "Usuário não encontrado")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"nome":           displayName(u),
		"email":          u.Email,
		"dataNascimento": displayBirthDate(u.BirthDate),
		"meta":           firstOf(u.Goal, defaultGoal),
		"alturaPeso":     firstOf(u.HeightWeight, defaultHeightWeight),
	})
}

type profileReq struct {
	Name         string `json:"nome"`
	Email        string `json:"email"`
	BirthDate    string `json:"dataNascimento"`
	Goal         string `json:"meta"`
	HeightWeight string `json:"alturaPeso"`
}

func (s *Server) updateProfile(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "JSON inválido")
		return
	}
	patch := profilePatch{
		Name:         req.Name,
		Email:        req.Email,
		Goal:         strings.TrimSpace(req.Goal),
		HeightWeight: strings.TrimSpace(req.HeightWeight),
	}
	if req.BirthDate != "" {
		t, err := time.Parse(birthDateLayout, req.BirthDate)
		if err != nil {
			fail(c, http.StatusBadRequest, "Formato de data inválido. Use dd/mm/yyyy")
			return
		}
		patch.BirthDate = t.Format(storedDateLayout)
	}

	switch err := s.state.updateProfile(c.GetInt64(ctxUserID), patch); {
	case errors.Is(err, errEmailTaken):
		fail(c, http.StatusConflict, "Email já cadastrado")
		return
	case err != nil:
		fail(c, http.StatusNotFound, "Usuário não encontrado")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Perfil atualizado com sucesso!"})
}

func (s *Server) deleteProfile(c *gin.Context) {
	id := c.GetInt64(ctxUserID)
	if err := s.state.deleteUser(id); err != nil {
		fail(c, http.StatusNotFound, "Usuário não encontrado")
		return
	}
	s.setSessionCookie(c, "", -1)
	s.log.Info(c.Request.Context(), "account deleted", "user_id", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Conta e perfil excluídos com sucesso!"})
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		fail(c, http.StatusBadRequest, "O email é obrigatório.")
		return
	}

	tok, err := s.state.issueReset(req.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Email não cadastrado."})
		return
	}
	// No mail transport in development: the token goes to the log.
	s.log.Info(c.Request.Context(), "password reset issued", "email", req.Email, "token", tok)
	c.JSON(http.StatusOK, gin.H{"message": "As instruções foram enviadas para o e-mail."})
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"nova_senha"`
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		fail(c, http.StatusBadRequest, "Token e nova senha são obrigatórios.")
		return
	}
	if err := s.state.resetPassword(req.Token, req.NewPassword); err != nil {
		if errors.Is(err, errBadReset) {
			fail(c, http.StatusBadRequest, "Token inválido ou expirado.")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Senha redefinida com sucesso!"})
}
