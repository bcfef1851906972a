package linguatests

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/linguasigna/integration-harness/framework/helpers"
	"github.com/linguasigna/integration-harness/framework/suite"
	"github.com/linguasigna/integration-harness/servicedef"
)

// Case names, in the order the cases run.
const (
	CaseBackendHealth        = "backend health"
	CaseRecognitionHealth    = "recognition health"
	CaseUserAuthentication   = "user authentication"
	CaseTranslationSession   = "translation session"
	CaseRecognitionTranslate = "recognition translate"
	CaseVideoRoomCreation    = "video room creation"
	CaseEndToEndFlow         = "end-to-end flow"

	// Extended cases, run only when requested.
	CaseVideoRoomJoin  = "video room join"
	CaseSessionListing = "session listing"
)

const (
	integrationTestEmail = "integration_test@example.com"
	testPassword         = "test123"
	sessionLanguage      = servicedef.LanguageASL
)

type testSuite struct {
	backend     serviceClient
	recognition serviceClient
	language    servicedef.Language
	state       scratch
}

func (s *testSuite) cases(extended bool) []suite.Case {
	ret := []suite.Case{
		{Name: CaseBackendHealth, Action: s.checkHealth(s.backend)},
		{Name: CaseRecognitionHealth, Action: s.checkHealth(s.recognition)},
		{Name: CaseUserAuthentication, Action: s.userAuthentication},
		{Name: CaseTranslationSession, Action: s.translationSession},
		{Name: CaseRecognitionTranslate, Action: s.recognitionTranslate},
		{Name: CaseVideoRoomCreation, Action: s.videoRoomCreation},
		{Name: CaseEndToEndFlow, Action: s.endToEndFlow},
	}
	if extended {
		ret = append(ret,
			suite.Case{Name: CaseVideoRoomJoin, Action: s.videoRoomJoin},
			suite.Case{Name: CaseSessionListing, Action: s.sessionListing},
		)
	}
	return ret
}

// checkHealth only verifies that the service answers. A 404 from /health sends us to the root path
// instead, and a 404 from there still counts, since some services have no health route at all.
func (s *testSuite) checkHealth(client serviceClient) func(*suite.T) {
	return func(t *suite.T) {
		resp := client.get(t, servicedef.HealthPath)
		if resp.status == http.StatusNotFound {
			resp = client.get(t, "/")
		}
		if resp.status != http.StatusOK && resp.status != http.StatusNotFound {
			t.Fatalf("unexpected status from %s service: %d", client.name, resp.status)
		}
		t.Note("%s responding (status: %d)", client.name, resp.status)
	}
}

func (s *testSuite) userAuthentication(t *suite.T) {
	userID, token := s.login(t, integrationTestEmail, "authentication")
	s.state.userID = ldvalue.NewOptionalString(userID)
	s.state.token = ldvalue.NewOptionalString(token)
	t.Note("user created: %s", integrationTestEmail)
}

func (s *testSuite) translationSession(t *suite.T) {
	userID := t.RequireDependency(depUserID, s.state.userID)
	sessionID := s.startSession(t, userID, "translation session")
	s.state.sessionID = ldvalue.NewOptionalString(sessionID)
	t.Note("session created: %s", sessionID)
}

func (s *testSuite) recognitionTranslate(t *suite.T) {
	frame, err := syntheticFrame()
	if err != nil {
		t.Fatalf("could not create test frame: %s", err)
	}
	resp := s.recognition.post(t, servicedef.TranslatePath,
		servicedef.TranslateParams{Image: frame, Language: string(s.language)})
	resp.requireStatusOK(t, "translation")

	success := resp.body.GetByKey("success")
	if success.Type() != ldvalue.BoolType {
		t.Fatalf("invalid translation response structure: missing success")
	}
	if success.BoolValue() {
		t.Note("translation: %s (confidence %.2f)",
			resp.body.GetByKey("translation").StringValue(), resp.body.GetByKey("confidence").Float64Value())
		return
	}
	if detail := resp.errorDetail(); detail != "" {
		t.Note("no sign recognized: %s", detail)
	} else {
		t.Note("no sign recognized")
	}
}

func (s *testSuite) videoRoomCreation(t *suite.T) {
	userID := t.RequireDependency(depUserID, s.state.userID)
	code := s.createRoom(t, userID, "room creation")
	s.state.roomCode = ldvalue.NewOptionalString(code)
	t.Note("room created: %s", code)
}

// endToEndFlow repeats the whole user journey with a user of its own, so it does not depend on the
// earlier cases.
func (s *testSuite) endToEndFlow(t *suite.T) {
	email := fmt.Sprintf("e2e_test_%s@example.com", uuid.NewString())

	userID, _ := s.login(t, email, "step 1: authentication")
	_ = s.startSession(t, userID, "step 2: translation session")
	code := s.createRoom(t, userID, "step 3: room creation")

	resp := s.recognition.post(t, servicedef.TranslatePath,
		servicedef.TranslateParams{Image: placeholderFrame, Language: string(sessionLanguage)})
	resp.requireStatusOK(t, "step 4: translation")

	t.Note("complete flow: user -> session -> room(%s) -> recognition", code)
}

func (s *testSuite) videoRoomJoin(t *suite.T) {
	code := t.RequireDependency(depRoomCode, s.state.roomCode)
	guestID, _ := s.login(t, fmt.Sprintf("guest_%s@example.com", uuid.NewString()), "guest authentication")

	resp := s.backend.post(t, servicedef.RoomsJoinPath, servicedef.JoinRoomParams{RoomCode: code, UserID: guestID})
	resp.requireStatusOK(t, "room join")
	resp.requireSuccess(t, "room join")

	participants := resp.body.GetByKey("room").GetByKey("participants")
	participantIDs := make([]string, 0, participants.Count())
	for i := 0; i < participants.Count(); i++ {
		participantIDs = append(participantIDs, participants.GetByIndex(i).GetByKey("userId").StringValue())
	}
	if !helpers.SliceContains(guestID, participantIDs) {
		t.Fatalf("guest %s is not among the participants of room %s", guestID, code)
	}
	t.Note("guest joined room %s (%d participants)", code, participants.Count())
}

func (s *testSuite) sessionListing(t *suite.T) {
	userID := t.RequireDependency(depUserID, s.state.userID)
	sessionID := t.RequireDependency(depSessionID, s.state.sessionID)

	resp := s.backend.get(t, servicedef.TranslationSessionsPathFor(userID))
	resp.requireStatusOK(t, "session listing")
	resp.requireSuccess(t, "session listing")

	sessions := resp.body.GetByKey("sessions")
	for i := 0; i < sessions.Count(); i++ {
		if sessions.GetByIndex(i).GetByKey("id").StringValue() == sessionID {
			t.Note("session %s listed (%d session(s) for user)", sessionID, sessions.Count())
			return
		}
	}
	t.Fatalf("session %s is not listed for user %s", sessionID, userID)
}

func (s *testSuite) login(t *suite.T, email, what string) (userID, token string) {
	t.Helper()
	resp := s.backend.post(t, servicedef.LoginPath, servicedef.LoginParams{Email: email, Password: testPassword})
	resp.requireStatusOK(t, what)
	resp.requireSuccess(t, what)
	return resp.requireString(t, what, "user", "id"), resp.requireString(t, what, "token")
}

func (s *testSuite) startSession(t *suite.T, userID, what string) string {
	t.Helper()
	resp := s.backend.post(t, servicedef.TranslationStartPath,
		servicedef.StartTranslationParams{UserID: userID, Language: string(sessionLanguage)})
	resp.requireStatusOK(t, what)
	resp.requireSuccess(t, what)
	return resp.requireString(t, what, "session", "id")
}

func (s *testSuite) createRoom(t *suite.T, userID, what string) string {
	t.Helper()
	resp := s.backend.post(t, servicedef.RoomsCreatePath, servicedef.CreateRoomParams{UserID: userID})
	resp.requireStatusOK(t, what)
	resp.requireSuccess(t, what)
	return resp.requireString(t, what, "room", "code")
}
