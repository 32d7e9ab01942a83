package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"voicedesk/models"
	"voicedesk/services/booking"
	"voicedesk/services/intelligence"
	"voicedesk/services/schedule"
	"voicedesk/services/speech"
	"voicedesk/utils"
)

const (
	qService  = "What can we do for you? A haircut, a colour, or a cut and colour?"
	qStylist  = "Which stylist would you like? We have Cosmo, Vince, and Cassidy."
	qDateTime = "What day and time work for you?"
	qName     = "Can I get your name?"
	qPhone    = "And what's the best phone number to reach you?"
)

// Engine runs one caller utterance through the slot-filling flow and
// produces what to say next. All telephony concerns stay in the handlers.
type Engine struct {
	Resolver   *schedule.Resolver
	Hours      *schedule.Hours
	Sessions   *SessionStore
	AI         intelligence.ConversationService
	Submitter  booking.Submitter
	Loc        *time.Location
	SalonName  string
	SalonPhone string
}

func listen(say string) models.TurnResult {
	return models.TurnResult{Say: say, Next: models.NextListen}
}

// HandleIncoming greets a new call.
func (e *Engine) HandleIncoming(callID string, now time.Time) models.TurnResult {
	sess := e.Sessions.GetOrCreate(callID, now)
	greeting := fmt.Sprintf("Thanks for calling %s! How can I help you today?", e.SalonName)
	sess.LastPrompt = greeting
	return listen(greeting)
}

// HandleTurn processes one utterance for a call.
func (e *Engine) HandleTurn(ctx context.Context, callID, utterance string, now time.Time) models.TurnResult {
	sess := e.Sessions.GetOrCreate(callID, now)
	sess.Touch(now)

	norm := speech.Normalize(utterance)
	if norm == "" {
		return e.reprompt(sess)
	}
	if sess.Pending != nil {
		return e.handleConfirmation(ctx, sess, norm, now)
	}
	if sess.Phone.Stage == models.PhoneConfirming {
		return e.handlePhoneConfirm(ctx, sess, norm, now)
	}
	if AsksWhatDate(norm) {
		return e.answerWhatDate(sess)
	}
	if AsksAvailability(norm) {
		return e.answerAvailability(ctx, sess, now)
	}
	return e.handleSlotFilling(ctx, sess, norm, utterance, now)
}

func (e *Engine) reprompt(sess *models.CallSession) models.TurnResult {
	if sess.LastPrompt != "" {
		return listen("Sorry, I didn't catch that. " + sess.LastPrompt)
	}
	return listen("Sorry, I didn't catch that. How can I help you?")
}

// extractInto applies every slot the utterance mentions to the draft.
// Mentions overwrite: a caller restating a field is correcting it.
func (e *Engine) extractInto(sess *models.CallSession, norm string, now time.Time) bool {
	progress := false
	if svc, ok := ParseService(norm); ok && sess.Draft.Service != svc {
		sess.Draft.Service = svc
		progress = true
	}
	if stylist, ok := ParseStylist(norm); ok && sess.Draft.Stylist != stylist {
		sess.Draft.Stylist = stylist
		progress = true
	}

	res := e.Resolver.ResolveDateTime(norm, now, sess.LastResolvedDate)
	if res.Date.Kind == schedule.DateResolved {
		sess.Draft.SetDate(res.Date.Date)
		sess.LastResolvedDate = res.Date.Date
		progress = true
	}
	if res.Time.Resolved {
		sess.Draft.SetTime(res.Time.Time)
		progress = true
	}

	if sess.AskedName && sess.Draft.Name == "" && !progress {
		if name, ok := ExtractName(norm); ok {
			sess.Draft.Name = name
			progress = true
		}
	}
	return progress
}

func (e *Engine) handleSlotFilling(ctx context.Context, sess *models.CallSession, norm, utterance string, now time.Time) models.TurnResult {
	// an ambiguous "next week" needs an answer before anything else
	if res := e.Resolver.ResolveDate(norm, now, sess.LastResolvedDate); res.Kind == schedule.DateAmbiguousNextWeek {
		sess.LastPrompt = "Next week starting from which day? What day works for you?"
		return listen(sess.LastPrompt)
	}

	// while the phone question is open, digits are phone digits, not times
	if sess.Phone.Stage == models.PhoneCollecting {
		if result, handled := e.collectPhoneDigits(sess, norm); handled {
			return result
		}
	}

	progress := e.extractInto(sess, norm, now)

	if !sess.Draft.DateTime.IsZero() {
		if result, rejected := e.validateDraftTime(ctx, sess, now); rejected {
			return result
		}
	}

	if !progress {
		return e.fallbackReply(ctx, sess, norm, utterance, now)
	}
	return e.advance(ctx, sess, now)
}

// advance asks the next missing question, or summarizes for confirmation
// when the draft is complete.
func (e *Engine) advance(_ context.Context, sess *models.CallSession, now time.Time) models.TurnResult {
	if b, ok := sess.Draft.Snapshot(); ok {
		sess.Pending = &models.PendingBooking{Booking: b, CreatedAt: now}
		say := fmt.Sprintf("So that's %s. Shall I book it?", summarize(b))
		sess.LastPrompt = say
		return listen(say)
	}
	field, question := nextMissing(&sess.Draft)
	switch field {
	case "phone":
		sess.Phone.Stage = models.PhoneCollecting
	case "name":
		sess.AskedName = true
	}
	sess.LastPrompt = question
	return listen(question)
}

func nextMissing(d *models.BookingDraft) (string, string) {
	switch {
	case d.Service == "":
		return "service", qService
	case d.Stylist == "":
		return "stylist", qStylist
	case d.DateTime.IsZero():
		return "datetime", qDateTime
	case d.Name == "":
		return "name", qName
	case d.Phone == "":
		return "phone", qPhone
	}
	return "", ""
}

// validateDraftTime checks the drafted instant against hours and the
// calendar, clearing the rejected half so the next question re-asks it.
// A merged instant can sit in the past even though the resolver refuses to
// combine one: the halves arrive on separate turns, or a same-day hour has
// slipped by. Those never reach confirmation.
func (e *Engine) validateDraftTime(ctx context.Context, sess *models.CallSession, now time.Time) (models.TurnResult, bool) {
	if !sess.Draft.DateTime.After(now) {
		sess.Draft.ClearTime()
		if sess.Draft.Date.Before(dayOf(now, e.Loc)) {
			sess.Draft.ClearDate()
			sess.LastPrompt = "I'm sorry, that day has already passed. What day would work for you?"
		} else {
			sess.LastPrompt = "I'm sorry, that time has already passed. What time would work for you?"
		}
		return listen(sess.LastPrompt), true
	}
	svc := sess.Draft.Service
	if svc == "" {
		svc = models.ServiceHaircut
	}
	verdict := e.Hours.Check(ctx, sess.Draft.DateTime, svc, sess.Draft.Stylist)
	switch verdict {
	case schedule.Ok:
		return models.TurnResult{}, false
	case schedule.ClosedDay:
		day := sess.Draft.DateTime.Weekday()
		sess.Draft.ClearDate()
		sess.Draft.ClearTime()
		sess.LastPrompt = fmt.Sprintf("I'm sorry, we're closed on %ss. Is there another day that works for you?", day)
		return listen(sess.LastPrompt), true
	case schedule.OutsideHours:
		open := models.ClockTime{Hour: e.Hours.OpenHour}
		closing := models.ClockTime{Hour: e.Hours.CloseHour}
		sess.Draft.ClearTime()
		sess.LastPrompt = fmt.Sprintf("We're open from %s to %s. What time would work for you?", open.Speech(), closing.Speech())
		return listen(sess.LastPrompt), true
	default:
		day := sess.Draft.Date
		when := schedule.SpeakDateTime(sess.Draft.DateTime)
		sess.Conflict = &models.ConflictContext{Date: day, Service: svc}
		sess.Draft.ClearTime()
		say := fmt.Sprintf("I'm sorry, that %s slot isn't available.", when)
		if slots := e.Hours.ListOpenSlots(ctx, day, svc, sess.Draft.Stylist, now); len(slots) > 0 {
			say += fmt.Sprintf(" On %s we could do %s. Would any of those work?",
				schedule.SpeakDate(day), schedule.SpeakSlots(slots))
		} else {
			say += " Is there another day that works for you?"
		}
		sess.LastPrompt = say
		return listen(say), true
	}
}

func (e *Engine) answerWhatDate(sess *models.CallSession) models.TurnResult {
	d := sess.LastResolvedDate
	if d.IsZero() {
		d = sess.Draft.Date
	}
	if d.IsZero() {
		sess.LastPrompt = "We haven't settled on a day yet. What day works for you?"
		return listen(sess.LastPrompt)
	}
	say := fmt.Sprintf("That would be %s.", schedule.SpeakDate(d))
	if sess.LastPrompt != "" {
		say += " " + sess.LastPrompt
	}
	return listen(say)
}

func (e *Engine) answerAvailability(ctx context.Context, sess *models.CallSession, now time.Time) models.TurnResult {
	day := sess.Draft.Date
	svc := sess.Draft.Service
	if sess.Conflict != nil {
		day = sess.Conflict.Date
		if svc == "" {
			svc = sess.Conflict.Service
		}
	}
	if day.IsZero() {
		day = sess.LastResolvedDate
	}
	if day.IsZero() {
		sess.LastPrompt = "Which day are you thinking of?"
		return listen(sess.LastPrompt)
	}
	if svc == "" {
		svc = models.ServiceHaircut
	}
	slots := e.Hours.ListOpenSlots(ctx, day, svc, sess.Draft.Stylist, now)
	if len(slots) == 0 {
		sess.LastPrompt = fmt.Sprintf("I'm not seeing anything open on %s. Is there another day that works?", schedule.SpeakDate(day))
		return listen(sess.LastPrompt)
	}
	sess.LastPrompt = fmt.Sprintf("On %s we could do %s. Would any of those work?",
		schedule.SpeakDate(day), schedule.SpeakSlots(slots))
	return listen(sess.LastPrompt)
}

// collectPhoneDigits accumulates spoken digits across turns. The first
// chunk must carry at least three digits so a stray "one" doesn't start a
// number; later chunks may be as short as a single digit.
func (e *Engine) collectPhoneDigits(sess *models.CallSession, norm string) (models.TurnResult, bool) {
	digits := speech.ExtractDigits(norm, true)
	if digits == "" {
		return models.TurnResult{}, false
	}
	if sess.Phone.Digits == "" && len(digits) < 3 {
		sess.LastPrompt = "Could you give me the full number, starting with the area code?"
		return listen(sess.LastPrompt), true
	}
	sess.Phone.Digits += digits
	if len(sess.Phone.Digits) < 10 {
		sess.LastPrompt = "Okay, go ahead."
		return listen(sess.LastPrompt), true
	}
	sess.Phone.Candidate = speech.BestPhoneWindow(sess.Phone.Digits)
	sess.Phone.Stage = models.PhoneConfirming
	sess.LastPrompt = fmt.Sprintf("I have %s. Did I get that right?", speech.GroupDigits(sess.Phone.Candidate))
	return listen(sess.LastPrompt), true
}

func (e *Engine) handlePhoneConfirm(ctx context.Context, sess *models.CallSession, norm string, now time.Time) models.TurnResult {
	switch ClassifyAnswer(norm) {
	case AnswerYes:
		sess.Draft.Phone = sess.Phone.Candidate
		sess.Phone = models.PhoneState{Stage: models.PhoneConfirmed}
		return e.advance(ctx, sess, now)
	case AnswerNo:
		sess.Phone = models.PhoneState{Stage: models.PhoneCollecting}
		sess.LastPrompt = "No problem, let's try that again. What's the number?"
		return listen(sess.LastPrompt)
	default:
		sess.LastPrompt = fmt.Sprintf("Sorry, I have %s. Is that right?", speech.GroupDigits(sess.Phone.Candidate))
		return listen(sess.LastPrompt)
	}
}

func (e *Engine) handleConfirmation(ctx context.Context, sess *models.CallSession, norm string, now time.Time) models.TurnResult {
	pending := sess.Pending
	switch ClassifyAnswer(norm) {
	case AnswerYes:
		// the slot may have been taken while the caller decided
		if verdict := e.Hours.Check(ctx, pending.Datetime, pending.Service, pending.Stylist); verdict != schedule.Ok {
			sess.Pending = nil
			sess.Conflict = &models.ConflictContext{Date: dayOf(pending.Datetime, e.Loc), Service: pending.Service}
			sess.Draft.ClearTime()
			say := fmt.Sprintf("I'm so sorry, %s was just taken.", schedule.SpeakDateTime(pending.Datetime))
			if slots := e.Hours.ListOpenSlots(ctx, sess.Conflict.Date, pending.Service, pending.Stylist, now); len(slots) > 0 {
				say += fmt.Sprintf(" We could still do %s. Would any of those work?", schedule.SpeakSlots(slots))
			} else {
				say += " Is there another day that works for you?"
			}
			sess.LastPrompt = say
			return listen(say)
		}
		if err := e.Submitter.SubmitBooking(ctx, pending.Booking); err != nil {
			utils.GetLogger().Error("Booking submission failed",
				zap.String("callID", sess.CallID), zap.Error(err))
			sess.LastPrompt = "I'm having a little trouble recording that right now. Should I try again?"
			return listen(sess.LastPrompt)
		}
		say := fmt.Sprintf("Perfect, you're all set for %s. We'll see you then. Goodbye!",
			schedule.SpeakDateTime(pending.Datetime))
		e.endCall(ctx, sess.CallID)
		return models.TurnResult{Say: say, Next: models.NextHangup}
	case AnswerNo:
		sess.Pending = nil
		sess.LastPrompt = "No problem. What should we change?"
		return listen(sess.LastPrompt)
	default:
		// not a yes or no; the caller may be correcting a detail
		if e.extractInto(sess, norm, now) {
			sess.Pending = nil
			if !sess.Draft.DateTime.IsZero() {
				if result, rejected := e.validateDraftTime(ctx, sess, now); rejected {
					return result
				}
			}
			return e.advance(ctx, sess, now)
		}
		sess.LastPrompt = "Sorry, should I book it? Yes or no?"
		return listen(sess.LastPrompt)
	}
}

func (e *Engine) fallbackReply(ctx context.Context, sess *models.CallSession, norm, utterance string, now time.Time) models.TurnResult {
	reply, action, err := e.AI.Reply(ctx, sess.CallID, utterance, sess.Draft)
	if err != nil {
		utils.GetLogger().Warn("Conversation fallback failed",
			zap.String("callID", sess.CallID), zap.Error(err))
		return e.reprompt(sess)
	}
	if action != nil {
		switch action.Action {
		case models.ActionTransfer:
			e.endCall(ctx, sess.CallID)
			return models.TurnResult{
				Say:        "Of course, one moment while I get someone for you.",
				Next:       models.NextTransfer,
				TransferTo: e.SalonPhone,
			}
		case models.ActionBook:
			if e.reconcile(sess, action, now) {
				if sess.Phone.Stage == models.PhoneConfirming {
					sess.LastPrompt = fmt.Sprintf("I have %s. Did I get that right?", speech.GroupDigits(sess.Phone.Candidate))
					return listen(sess.LastPrompt)
				}
				return e.advance(ctx, sess, now)
			}
		}
	}
	// the model sometimes re-asks for a field it was told is known; keep
	// the deterministic flow authoritative and ask for what's missing
	if reasksKnownField(speech.Normalize(reply), &sess.Draft) {
		return e.advance(ctx, sess, now)
	}
	sess.LastPrompt = reply
	return listen(reply)
}

// endCall tears down everything tied to a finished call: the session and
// the model's stored history. The clip cache keeps its own lifetime; the
// provider may still be fetching the goodbye audio.
func (e *Engine) endCall(ctx context.Context, callID string) {
	e.Sessions.Delete(callID)
	e.AI.EndCall(ctx, callID)
}

// reasksKnownField reports whether a model reply asks for a slot the draft
// already holds.
func reasksKnownField(normalized string, d *models.BookingDraft) bool {
	toks := speech.Tokens(normalized)
	if !hasAny(toks, "what", "which", "when", "who") {
		return false
	}
	if d.Service != "" && hasAny(toks, "service") {
		return true
	}
	if d.Stylist != "" && hasAny(toks, "stylist") {
		return true
	}
	if !d.DateTime.IsZero() && hasAny(toks, "time", "day", "date", "when") {
		return true
	}
	if d.Name != "" && hasAny(toks, "name") {
		return true
	}
	if d.Phone != "" && hasAny(toks, "phone", "number") {
		return true
	}
	return false
}

// reconcile folds a model-reported action into the draft. The draft always
// wins: the deterministic flow heard the caller first-hand, the model is
// only filling gaps. A model-supplied phone still goes through read-back.
func (e *Engine) reconcile(sess *models.CallSession, action *models.AssistantAction, now time.Time) bool {
	progress := false
	if sess.Draft.Service == "" && action.Service != "" {
		if svc, ok := ParseService(speech.Normalize(action.Service)); ok {
			sess.Draft.Service = svc
			progress = true
		}
	}
	if sess.Draft.Stylist == "" && action.Stylist != "" {
		if stylist, ok := ParseStylist(speech.Normalize(action.Stylist)); ok {
			sess.Draft.Stylist = stylist
			progress = true
		}
	}
	if sess.Draft.DateTime.IsZero() && action.Datetime != "" {
		if dt, ok := parseActionTime(action.Datetime, e.Loc); ok && dt.After(now) {
			sess.Draft.SetDateTime(dt, e.Loc)
			sess.LastResolvedDate = sess.Draft.Date
			progress = true
		}
	}
	if sess.Draft.Name == "" && action.Name != "" {
		if name, ok := ExtractName(speech.Normalize(action.Name)); ok {
			sess.Draft.Name = name
			progress = true
		}
	}
	if sess.Draft.Phone == "" && action.Phone != "" {
		digits := speech.ExtractDigits(speech.Normalize(action.Phone), true)
		if w := speech.BestPhoneWindow(digits); w != "" {
			sess.Phone.Candidate = w
			sess.Phone.Stage = models.PhoneConfirming
			progress = true
		}
	}
	return progress
}

func parseActionTime(value string, loc *time.Location) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"} {
		if dt, err := time.ParseInLocation(layout, value, loc); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func summarize(b models.Booking) string {
	svc := strings.ReplaceAll(string(b.Service), "&", "and")
	return fmt.Sprintf("a %s with %s on %s for %s",
		svc, b.Stylist, schedule.SpeakDateTime(b.Datetime), b.Name)
}
