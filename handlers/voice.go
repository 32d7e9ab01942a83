package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicedesk/models"
	"voicedesk/services/dialog"
	"voicedesk/services/voice"
	"voicedesk/utils"
)

// VoiceHandler renders engine results as telephony markup. Everything the
// caller hears goes through here; the engine itself never sees TwiML.
type VoiceHandler struct {
	Engine  *dialog.Engine
	Turns   *dialog.TurnStore
	Voice   *voice.Service
	BaseURL string
}

func NewVoiceHandler(engine *dialog.Engine, turns *dialog.TurnStore, voiceSvc *voice.Service, baseURL string) *VoiceHandler {
	return &VoiceHandler{Engine: engine, Turns: turns, Voice: voiceSvc, BaseURL: baseURL}
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func (h *VoiceHandler) respondTwiML(c *gin.Context, body string) {
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, `<?xml version="1.0" encoding="UTF-8"?><Response>`+body+`</Response>`)
}

// speakFragment synthesizes text into a cached clip and returns a Play
// verb, falling back to a plain Say when synthesis fails.
func (h *VoiceHandler) speakFragment(c *gin.Context, text string) string {
	if clipID, err := h.Voice.Say(c.Request.Context(), text); err == nil {
		return fmt.Sprintf(`<Play>%s/audio/%s.mp3</Play>`, h.BaseURL, clipID)
	}
	return fmt.Sprintf(`<Say>%s</Say>`, xmlEscaper.Replace(text))
}

func (h *VoiceHandler) gather(inner string) string {
	return fmt.Sprintf(`<Gather input="speech" action="%s/voice/turn" method="POST" speechTimeout="auto">%s</Gather><Redirect method="POST">%s/voice/turn</Redirect>`,
		h.BaseURL, inner, h.BaseURL)
}

func (h *VoiceHandler) renderResult(c *gin.Context, result models.TurnResult) {
	speak := h.speakFragment(c, result.Say)
	switch result.Next {
	case models.NextHangup:
		h.respondTwiML(c, speak+`<Hangup/>`)
	case models.NextTransfer:
		h.respondTwiML(c, fmt.Sprintf(`%s<Dial>%s</Dial>`, speak, xmlEscaper.Replace(result.TransferTo)))
	default:
		h.respondTwiML(c, h.gather(speak))
	}
}

func callID(c *gin.Context) string {
	if sid := c.PostForm("CallSid"); sid != "" {
		return sid
	}
	return c.Query("CallSid")
}

// Incoming greets a new call.
func (h *VoiceHandler) Incoming(c *gin.Context) {
	id := callID(c)
	if id == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing CallSid", "the telephony provider did not send a call id")
		return
	}
	result := h.Engine.HandleIncoming(id, time.Now())
	h.renderResult(c, result)
}

// Turn accepts one transcribed utterance, kicks the engine off in the
// background, and immediately answers with a filler plus a poll redirect so
// the caller never sits in dead air.
func (h *VoiceHandler) Turn(c *gin.Context) {
	id := callID(c)
	if id == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing CallSid", "the telephony provider did not send a call id")
		return
	}
	utterance := c.PostForm("SpeechResult")

	token := uuid.NewString()
	cell := models.NewPendingTurn(id, time.Now())
	h.Turns.Put(token, cell)

	go func() {
		// the request context dies when this handler returns; the turn
		// outlives it and is bounded by the sweeper instead
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		result := h.Engine.HandleTurn(ctx, id, utterance, time.Now())
		if !cell.Complete(result) {
			utils.GetLogger().Debug("Turn finished after its cell expired",
				zap.String("callID", id), zap.String("token", token))
		}
	}()

	var filler string
	if clipID, text, ok := h.Voice.FillerClip(); ok {
		filler = fmt.Sprintf(`<Play>%s/audio/%s.mp3</Play>`, h.BaseURL, clipID)
	} else {
		filler = fmt.Sprintf(`<Say>%s</Say>`, xmlEscaper.Replace(text))
	}
	redirect := fmt.Sprintf(`<Redirect method="POST">%s/voice/turn/result?token=%s&amp;CallSid=%s</Redirect>`,
		h.BaseURL, token, id)
	h.respondTwiML(c, filler+redirect)
}

// TurnResult polls the result cell. Not ready yet means a one second pause
// and another redirect; an unknown or expired token asks the caller to
// repeat themselves.
func (h *VoiceHandler) TurnResult(c *gin.Context) {
	token := c.Query("token")
	cell := h.Turns.Get(token)
	if cell == nil {
		var speak string
		if clipID, ok := h.Voice.RepeatClip(); ok {
			speak = fmt.Sprintf(`<Play>%s/audio/%s.mp3</Play>`, h.BaseURL, clipID)
		} else {
			speak = fmt.Sprintf(`<Say>%s</Say>`, xmlEscaper.Replace(voice.RepeatPrompt))
		}
		h.respondTwiML(c, h.gather(speak))
		return
	}
	if result, ok := cell.Take(); ok {
		h.Turns.Remove(token)
		h.renderResult(c, result)
		return
	}
	poll := fmt.Sprintf(`<Pause length="1"/><Redirect method="POST">%s/voice/turn/result?token=%s&amp;CallSid=%s</Redirect>`,
		h.BaseURL, token, callID(c))
	h.respondTwiML(c, poll)
}

// Audio serves a cached clip.
func (h *VoiceHandler) Audio(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("id"), ".mp3")
	audio, ok := h.Voice.Store.Get(id)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
