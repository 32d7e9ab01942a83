package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"voicedesk/models"
	"voicedesk/services/calendar"
	"voicedesk/services/schedule"
)

type stubCalendar struct {
	busy []calendar.Interval
	err  error
}

func (f *stubCalendar) Busy(_ context.Context, start time.Time, d time.Duration, _ string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, iv := range f.busy {
		if iv.Overlaps(start, start.Add(d)) {
			return true, nil
		}
	}
	return false, nil
}

func (f *stubCalendar) BusyIntervals(context.Context, time.Time, time.Time, string) ([]calendar.Interval, error) {
	return f.busy, f.err
}

type stubAI struct {
	reply  string
	action *models.AssistantAction
	ended  []string
}

func (s *stubAI) Reply(context.Context, string, string, models.BookingDraft) (string, *models.AssistantAction, error) {
	return s.reply, s.action, nil
}

func (s *stubAI) EndCall(_ context.Context, callID string) {
	s.ended = append(s.ended, callID)
}

type stubSubmitter struct {
	err   error
	calls []models.Booking
}

func (s *stubSubmitter) SubmitBooking(_ context.Context, b models.Booking) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, b)
	return nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", value, time.UTC)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return parsed
}

func newTestEngine(cal calendar.Client, ai *stubAI, sub *stubSubmitter) *Engine {
	return &Engine{
		Resolver: schedule.NewResolver(time.UTC, 1, 7),
		Hours: &schedule.Hours{
			Loc:           time.UTC,
			OpenHour:      9,
			CloseHour:     19,
			ClosedWeekday: time.Sunday,
			StepMinutes:   30,
			MaxSpoken:     4,
			Cal:           cal,
		},
		Sessions:   NewSessionStore(),
		AI:         ai,
		Submitter:  sub,
		Loc:        time.UTC,
		SalonName:  "Shear Bliss",
		SalonPhone: "+19055550000",
	}
}

// drives a full happy-path call from greeting to hangup
func TestFullBookingFlow(t *testing.T) {
	ctx := context.Background()
	sub := &stubSubmitter{}
	ai := &stubAI{reply: "How can I help?"}
	e := newTestEngine(&stubCalendar{}, ai, sub)
	// Tuesday morning
	now := mustTime(t, "2026-03-03 10:00")

	greeting := e.HandleIncoming("call-1", now)
	if greeting.Next != models.NextListen || !strings.Contains(greeting.Say, "Shear Bliss") {
		t.Fatalf("greeting = %+v", greeting)
	}

	r := e.HandleTurn(ctx, "call-1", "I'd like a haircut with Cosmo tomorrow at 4", now)
	if !strings.Contains(r.Say, "name") {
		t.Fatalf("expected name question, got %q", r.Say)
	}

	r = e.HandleTurn(ctx, "call-1", "Alex", now)
	if !strings.Contains(r.Say, "phone") {
		t.Fatalf("expected phone question, got %q", r.Say)
	}

	r = e.HandleTurn(ctx, "call-1", "nine zero five five five five one two three four", now)
	if !strings.Contains(r.Say, "905, 555, 1234") {
		t.Fatalf("expected grouped read-back, got %q", r.Say)
	}

	r = e.HandleTurn(ctx, "call-1", "yes", now)
	if !strings.Contains(r.Say, "Shall I book it?") {
		t.Fatalf("expected confirmation summary, got %q", r.Say)
	}
	for _, want := range []string{"haircut", "Cosmo", "Wednesday, March 4 at 4 PM", "Alex"} {
		if !strings.Contains(r.Say, want) {
			t.Errorf("summary %q missing %q", r.Say, want)
		}
	}

	r = e.HandleTurn(ctx, "call-1", "yes please", now)
	if r.Next != models.NextHangup {
		t.Fatalf("expected hangup after booking, got %+v", r)
	}
	if _, ok := e.Sessions.Get("call-1"); ok {
		t.Error("session kept after hangup")
	}
	if len(ai.ended) != 1 || ai.ended[0] != "call-1" {
		t.Errorf("conversation history not cleared: %v", ai.ended)
	}
	if len(sub.calls) != 1 {
		t.Fatalf("submitted %d bookings, want 1", len(sub.calls))
	}
	b := sub.calls[0]
	if b.Service != models.ServiceHaircut || b.Stylist != "Cosmo" || b.Name != "Alex" || b.Phone != "9055551234" {
		t.Errorf("submitted booking = %+v", b)
	}
	if want := mustTime(t, "2026-03-04 16:00"); !b.Datetime.Equal(want) {
		t.Errorf("booked datetime = %v, want %v", b.Datetime, want)
	}
}

func TestPhoneReadbackNoDiscardsDigits(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-2", "a haircut with cosmo tomorrow at 4", now)
	e.HandleTurn(ctx, "call-2", "alex", now)
	e.HandleTurn(ctx, "call-2", "nine zero five five five five one two three four", now)

	r := e.HandleTurn(ctx, "call-2", "no that's wrong", now)
	if !strings.Contains(r.Say, "again") {
		t.Fatalf("expected retry prompt, got %q", r.Say)
	}
	sess, _ := e.Sessions.Get("call-2")
	if sess.Phone.Digits != "" || sess.Phone.Candidate != "" {
		t.Errorf("rejected digits not discarded: %+v", sess.Phone)
	}
	if sess.Draft.Phone != "" {
		t.Errorf("unconfirmed phone committed: %q", sess.Draft.Phone)
	}

	r = e.HandleTurn(ctx, "call-2", "905 555 9876", now)
	if !strings.Contains(r.Say, "905, 555, 9876") {
		t.Fatalf("expected new read-back, got %q", r.Say)
	}
	r = e.HandleTurn(ctx, "call-2", "yes", now)
	sess, _ = e.Sessions.Get("call-2")
	if sess.Draft.Phone != "9055559876" {
		t.Errorf("confirmed phone = %q", sess.Draft.Phone)
	}
	if !strings.Contains(r.Say, "Shall I book it?") {
		t.Errorf("expected summary after phone confirm, got %q", r.Say)
	}
}

func TestPhoneFirstChunkMinimum(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-3", "a haircut with cosmo tomorrow at 4", now)
	e.HandleTurn(ctx, "call-3", "alex", now)

	r := e.HandleTurn(ctx, "call-3", "nine", now)
	if !strings.Contains(r.Say, "area code") {
		t.Fatalf("expected area-code prompt, got %q", r.Say)
	}
	sess, _ := e.Sessions.Get("call-3")
	if sess.Phone.Digits != "" {
		t.Errorf("short first chunk stored: %q", sess.Phone.Digits)
	}

	// chunked entry: 3 then 3 then 4
	e.HandleTurn(ctx, "call-3", "nine zero five", now)
	e.HandleTurn(ctx, "call-3", "five five five", now)
	r = e.HandleTurn(ctx, "call-3", "one two three four", now)
	if !strings.Contains(r.Say, "905, 555, 1234") {
		t.Fatalf("expected read-back after chunks, got %q", r.Say)
	}
}

func TestConfirmationRecheckConflict(t *testing.T) {
	ctx := context.Background()
	cal := &stubCalendar{}
	e := newTestEngine(cal, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-4", "a haircut with cosmo tomorrow at 4", now)
	e.HandleTurn(ctx, "call-4", "alex", now)
	e.HandleTurn(ctx, "call-4", "905 555 1234", now)
	r := e.HandleTurn(ctx, "call-4", "yes", now)
	if !strings.Contains(r.Say, "Shall I book it?") {
		t.Fatalf("expected summary, got %q", r.Say)
	}

	// the slot fills while the caller hesitates
	cal.busy = []calendar.Interval{{
		Start: mustTime(t, "2026-03-04 16:00"),
		End:   mustTime(t, "2026-03-04 17:00"),
	}}
	r = e.HandleTurn(ctx, "call-4", "yes", now)
	if r.Next != models.NextListen || !strings.Contains(r.Say, "just taken") {
		t.Fatalf("expected conflict apology, got %+v", r)
	}
	sess, _ := e.Sessions.Get("call-4")
	if sess.Pending != nil {
		t.Error("pending booking survived the conflict")
	}
	if !sess.Draft.DateTime.IsZero() {
		t.Error("conflicted time not cleared from draft")
	}
	if sess.Draft.Name != "Alex" || sess.Draft.Phone != "9055551234" {
		t.Error("conflict wiped unrelated draft fields")
	}
}

func TestConfirmationImplicitCorrection(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-5", "a colour with cassidy tomorrow at 2", now)
	e.HandleTurn(ctx, "call-5", "sam", now)
	e.HandleTurn(ctx, "call-5", "905 555 1234", now)
	e.HandleTurn(ctx, "call-5", "yes", now)

	r := e.HandleTurn(ctx, "call-5", "actually can we make it 3", now)
	if !strings.Contains(r.Say, "3 PM") || !strings.Contains(r.Say, "Shall I book it?") {
		t.Fatalf("expected re-summarize with new time, got %q", r.Say)
	}
	sess, _ := e.Sessions.Get("call-5")
	if sess.Pending == nil {
		t.Fatal("no pending booking after correction")
	}
	if want := mustTime(t, "2026-03-04 15:00"); !sess.Pending.Datetime.Equal(want) {
		t.Errorf("corrected datetime = %v, want %v", sess.Pending.Datetime, want)
	}
}

func TestSubmitFailureKeepsBookingConfirmable(t *testing.T) {
	ctx := context.Background()
	sub := &stubSubmitter{err: errors.New("webhook down")}
	e := newTestEngine(&stubCalendar{}, &stubAI{}, sub)
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-6", "a haircut with vince tomorrow at 4", now)
	e.HandleTurn(ctx, "call-6", "alex", now)
	e.HandleTurn(ctx, "call-6", "905 555 1234", now)
	e.HandleTurn(ctx, "call-6", "yes", now)

	r := e.HandleTurn(ctx, "call-6", "yes", now)
	if r.Next != models.NextListen || !strings.Contains(r.Say, "trouble") {
		t.Fatalf("expected retryable failure message, got %+v", r)
	}
	sess, _ := e.Sessions.Get("call-6")
	if sess.Pending == nil {
		t.Fatal("pending booking dropped on submit failure")
	}

	sub.err = nil
	r = e.HandleTurn(ctx, "call-6", "yes try again", now)
	if r.Next != models.NextHangup || len(sub.calls) != 1 {
		t.Fatalf("retry did not book: %+v, calls=%d", r, len(sub.calls))
	}
}

func TestClosedDayRefused(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	r := e.HandleTurn(ctx, "call-7", "a haircut on sunday at 2", now)
	if !strings.Contains(r.Say, "closed on Sundays") {
		t.Fatalf("expected closed-day refusal, got %q", r.Say)
	}
	sess, _ := e.Sessions.Get("call-7")
	if !sess.Draft.Date.IsZero() || !sess.Draft.DateTime.IsZero() {
		t.Error("closed-day date kept in draft")
	}
	if sess.Draft.Service != models.ServiceHaircut {
		t.Error("service lost on closed-day refusal")
	}
}

func TestWhatDaySideQuestion(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	// Wednesday
	now := mustTime(t, "2026-02-18 10:00")

	e.HandleTurn(ctx, "call-8", "a haircut with cosmo next tuesday at 4", now)
	r := e.HandleTurn(ctx, "call-8", "wait, what day is that?", now)
	if !strings.Contains(r.Say, "Tuesday, March 3") {
		t.Fatalf("expected resolved date answer, got %q", r.Say)
	}
	// the open question is repeated so the flow keeps moving
	if !strings.Contains(r.Say, "name") {
		t.Errorf("expected pending question repeated, got %q", r.Say)
	}
}

func TestEmptyUtteranceReprompts(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-9", "a haircut", now)
	r := e.HandleTurn(ctx, "call-9", "", now)
	if !strings.Contains(r.Say, "didn't catch that") || !strings.Contains(r.Say, "stylist") {
		t.Fatalf("expected re-prompt of stylist question, got %q", r.Say)
	}
}

func TestFallbackReconcileDraftWins(t *testing.T) {
	ctx := context.Background()
	ai := &stubAI{
		reply:  "Sure thing.",
		action: &models.AssistantAction{Action: models.ActionBook, Service: "colour", Stylist: "Vince"},
	}
	e := newTestEngine(&stubCalendar{}, ai, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-10", "a haircut", now)
	e.HandleTurn(ctx, "call-10", "tell me something", now)

	sess, _ := e.Sessions.Get("call-10")
	if sess.Draft.Service != models.ServiceHaircut {
		t.Errorf("model overwrote the heard service: %q", sess.Draft.Service)
	}
	if sess.Draft.Stylist != "Vince" {
		t.Errorf("model did not fill the empty stylist: %q", sess.Draft.Stylist)
	}
}

func TestTransferAction(t *testing.T) {
	ctx := context.Background()
	ai := &stubAI{reply: "One moment.", action: &models.AssistantAction{Action: models.ActionTransfer}}
	e := newTestEngine(&stubCalendar{}, ai, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	r := e.HandleTurn(ctx, "call-11", "i need to talk to a real person about my extensions", now)
	if r.Next != models.NextTransfer || r.TransferTo != "+19055550000" {
		t.Fatalf("expected transfer, got %+v", r)
	}
	if _, ok := e.Sessions.Get("call-11"); ok {
		t.Error("session kept after transfer")
	}
	if len(ai.ended) != 1 || ai.ended[0] != "call-11" {
		t.Errorf("conversation history not cleared: %v", ai.ended)
	}
}

func TestAmbiguousNextWeek(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	r := e.HandleTurn(ctx, "call-12", "sometime next week", now)
	if !strings.Contains(r.Say, "which day") && !strings.Contains(r.Say, "What day") {
		t.Fatalf("expected clarifying question, got %q", r.Say)
	}
	sess, _ := e.Sessions.Get("call-12")
	if !sess.Draft.Date.IsZero() {
		t.Error("ambiguous next week set a date")
	}
}

func TestAvailabilitySideQuestion(t *testing.T) {
	ctx := context.Background()
	cal := &stubCalendar{busy: []calendar.Interval{{
		Start: mustTime(t, "2026-03-04 09:00"),
		End:   mustTime(t, "2026-03-04 12:00"),
	}}}
	e := newTestEngine(cal, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-13", "a haircut with cosmo tomorrow at 10", now)
	r := e.HandleTurn(ctx, "call-13", "okay, what times are free?", now)
	if !strings.Contains(r.Say, "Wednesday, March 4") {
		t.Fatalf("expected availability for the conflicted day, got %q", r.Say)
	}
	if !strings.Contains(r.Say, "12 PM") {
		t.Errorf("expected first free slot after the busy morning, got %q", r.Say)
	}
	if strings.Contains(r.Say, "9 AM") || strings.Contains(r.Say, "10 AM") {
		t.Errorf("offered a busy slot: %q", r.Say)
	}
}

func TestPastSameDayTimeRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	// Tuesday, late afternoon
	now := mustTime(t, "2026-03-03 17:00")

	r := e.HandleTurn(ctx, "call-14", "a haircut with cosmo today at 2", now)
	if !strings.Contains(r.Say, "already passed") {
		t.Fatalf("expected past-time rejection, got %q", r.Say)
	}
	sess, _ := e.Sessions.Get("call-14")
	if !sess.Draft.DateTime.IsZero() {
		t.Errorf("past instant kept in draft: %v", sess.Draft.DateTime)
	}
	if sess.Draft.Date.IsZero() {
		t.Error("usable date cleared along with the past time")
	}
	if sess.Draft.Service != models.ServiceHaircut || sess.Draft.Stylist != "Cosmo" {
		t.Error("rejection wiped unrelated draft fields")
	}

	// a later hour on the same day is fine
	r = e.HandleTurn(ctx, "call-14", "okay, 6 then", now)
	if !strings.Contains(r.Say, "name") {
		t.Fatalf("expected name question after valid retry, got %q", r.Say)
	}
}

func TestPastTimeFromSeparateTurns(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 17:00")

	e.HandleTurn(ctx, "call-15", "a haircut with cosmo today", now)
	r := e.HandleTurn(ctx, "call-15", "at 2", now)
	if !strings.Contains(r.Say, "already passed") {
		t.Fatalf("expected past-time rejection, got %q", r.Say)
	}
	sess, _ := e.Sessions.Get("call-15")
	if !sess.Draft.DateTime.IsZero() {
		t.Errorf("past instant kept in draft: %v", sess.Draft.DateTime)
	}
}

func TestModelReaskOfKnownFieldSuppressed(t *testing.T) {
	ctx := context.Background()
	ai := &stubAI{reply: "Sure! What time works for you?"}
	e := newTestEngine(&stubCalendar{}, ai, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")

	e.HandleTurn(ctx, "call-16", "a haircut with cosmo tomorrow at 4", now)
	r := e.HandleTurn(ctx, "call-16", "do you do loyalty points", now)
	if strings.Contains(r.Say, "What time") {
		t.Fatalf("model re-asked a settled field: %q", r.Say)
	}
	if !strings.Contains(r.Say, "name") {
		t.Errorf("expected the open question instead, got %q", r.Say)
	}

	// asking for a field still missing passes through untouched
	ai.reply = "Happy to help! What name should I put it under?"
	r = e.HandleTurn(ctx, "call-16", "do you take walk ins", now)
	if r.Say != ai.reply {
		t.Errorf("model question for a missing field rewritten: %q", r.Say)
	}
}

func TestSessionSweep(t *testing.T) {
	e := newTestEngine(&stubCalendar{}, &stubAI{}, &stubSubmitter{})
	now := mustTime(t, "2026-03-03 10:00")
	e.HandleIncoming("old-call", now)
	e.HandleIncoming("new-call", now.Add(29*time.Minute))

	removed := e.Sessions.SweepIdle(now.Add(31*time.Minute), 30*time.Minute, 10*time.Minute)
	if removed != 1 {
		t.Fatalf("swept %d sessions, want 1", removed)
	}
	if _, ok := e.Sessions.Get("old-call"); ok {
		t.Error("idle session survived sweep")
	}
	if _, ok := e.Sessions.Get("new-call"); !ok {
		t.Error("fresh session swept")
	}
}
