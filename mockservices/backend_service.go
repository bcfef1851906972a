package mockservices

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/linguasigna/integration-harness/framework"
	"github.com/linguasigna/integration-harness/framework/helpers"
	"github.com/linguasigna/integration-harness/servicedef"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// BackendService is an in-memory stand-in for the backend: users, translation sessions, and
// video rooms. Passwords are accepted without checking; logging in with an unknown e-mail address
// creates the user.
type BackendService struct {
	handler     http.Handler
	debugLogger framework.Logger
	random      *rand.Rand
	users       []*servicedef.User
	sessions    []servicedef.TranslationSession
	rooms       []*servicedef.Room
	lock        sync.Mutex
}

func NewBackendService(debugLogger framework.Logger) *BackendService {
	b := &BackendService{
		debugLogger: debugLogger,
		random:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // not security-sensitive
	}

	router := mux.NewRouter()
	router.HandleFunc("/", b.serveHealth(true)).Methods("GET")
	router.HandleFunc(servicedef.HealthPath, b.serveHealth(false)).Methods("GET")
	router.HandleFunc(servicedef.LoginPath, b.serveLogin).Methods("POST")
	router.HandleFunc(servicedef.TranslationStartPath, b.serveStartTranslation).Methods("POST")
	router.HandleFunc(servicedef.TranslationSessionsPath, b.serveListSessions).Methods("GET")
	router.HandleFunc(servicedef.RoomsCreatePath, b.serveCreateRoom).Methods("POST")
	router.HandleFunc(servicedef.RoomsJoinPath, b.serveJoinRoom).Methods("POST")
	router.HandleFunc(servicedef.RoomsPath, b.serveListRooms).Methods("GET")
	router.HandleFunc(servicedef.StatsPath, b.serveStats).Methods("GET")
	b.handler = router

	return b
}

func (b *BackendService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.handler.ServeHTTP(w, r)
}

func (b *BackendService) serveHealth(verbose bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := servicedef.HealthRep{
			Status:    "healthy",
			Service:   servicedef.BackendServiceName,
			Timestamp: formatTimestamp(time.Now()),
		}
		if verbose {
			rep.Version = "1.0.0"
			rep.Endpoints = []string{
				"GET / - Health check",
				"POST " + servicedef.LoginPath + " - User authentication",
				"POST " + servicedef.TranslationStartPath + " - Start translation session",
				"POST " + servicedef.RoomsCreatePath + " - Create video room",
				"POST " + servicedef.RoomsJoinPath + " - Join video room",
			}
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func (b *BackendService) serveLogin(w http.ResponseWriter, r *http.Request) {
	var params servicedef.LoginParams
	_ = readJSON(r, &params)
	if params.Email == "" || params.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	b.lock.Lock()
	user := b.findUserByEmail(params.Email)
	if user == nil {
		username, _, _ := strings.Cut(params.Email, "@")
		user = &servicedef.User{
			ID:       uuid.NewString(),
			Email:    params.Email,
			Username: username,
			Settings: servicedef.UserSettings{
				SelectedLanguage:    string(servicedef.LanguageASL),
				AutoTranslate:       true,
				TranslationTextSize: 16,
			},
			CreatedAt: formatTimestamp(time.Now()),
		}
		b.users = append(b.users, user)
		b.debugLogger.Printf("Created user %s (%s)", user.ID, user.Email)
	}
	userCopy := *user
	b.lock.Unlock()

	writeJSON(w, http.StatusOK, servicedef.LoginRep{
		Success: true,
		User:    &userCopy,
		Token:   fmt.Sprintf("jwt_token_%s_%d", userCopy.ID, time.Now().UnixMilli()),
		Message: "Authentication successful",
	})
}

func (b *BackendService) serveStartTranslation(w http.ResponseWriter, r *http.Request) {
	var params servicedef.StartTranslationParams
	_ = readJSON(r, &params)
	if params.UserID == "" || params.Language == "" {
		writeError(w, http.StatusBadRequest, "UserId and language are required")
		return
	}
	language, ok := servicedef.ParseLanguage(params.Language)
	if !ok {
		writeError(w, http.StatusBadRequest, "Language must be asl or gsl")
		return
	}

	session := servicedef.TranslationSession{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		Language:  string(language),
		StartTime: formatTimestamp(time.Now()),
		Active:    true,
	}
	b.lock.Lock()
	b.sessions = append(b.sessions, session)
	b.lock.Unlock()
	b.debugLogger.Printf("Started %s translation session %s for user %s", language, session.ID, session.UserID)

	writeJSON(w, http.StatusOK, servicedef.StartTranslationRep{
		Success: true,
		Session: &session,
		Message: "Translation session started",
	})
}

func (b *BackendService) serveListSessions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	sessions := make([]servicedef.TranslationSession, 0)
	b.lock.Lock()
	for _, s := range b.sessions {
		if s.UserID == userID {
			sessions = append(sessions, s)
		}
	}
	b.lock.Unlock()
	writeJSON(w, http.StatusOK, servicedef.ListSessionsRep{Success: true, Sessions: sessions})
}

func (b *BackendService) serveCreateRoom(w http.ResponseWriter, r *http.Request) {
	var params servicedef.CreateRoomParams
	_ = readJSON(r, &params)
	if params.UserID == "" {
		writeError(w, http.StatusBadRequest, "UserId is required")
		return
	}

	now := formatTimestamp(time.Now())
	b.lock.Lock()
	room := &servicedef.Room{
		ID:        uuid.NewString(),
		Code:      b.newRoomCode(),
		CreatorID: params.UserID,
		Participants: []servicedef.Participant{
			{UserID: params.UserID, JoinedAt: now, Role: servicedef.ParticipantRoleCreator},
		},
		MaxParticipants: servicedef.DefaultMaxParticipants,
		Active:          true,
		CreatedAt:       now,
	}
	b.rooms = append(b.rooms, room)
	roomCopy := copyRoom(room)
	b.lock.Unlock()
	b.debugLogger.Printf("Created room %s for user %s", roomCopy.Code, roomCopy.CreatorID)

	writeJSON(w, http.StatusOK, servicedef.RoomRep{
		Success: true,
		Room:    &roomCopy,
		Message: "Room created successfully",
	})
}

func (b *BackendService) serveJoinRoom(w http.ResponseWriter, r *http.Request) {
	var params servicedef.JoinRoomParams
	_ = readJSON(r, &params)
	if params.RoomCode == "" || params.UserID == "" {
		writeError(w, http.StatusBadRequest, "RoomCode and userId are required")
		return
	}

	b.lock.Lock()
	room := b.findActiveRoom(params.RoomCode)
	if room == nil {
		b.lock.Unlock()
		writeError(w, http.StatusNotFound, "Room not found or inactive")
		return
	}
	joined := false
	for _, p := range room.Participants {
		if p.UserID == params.UserID {
			joined = true
			break
		}
	}
	if !joined {
		room.Participants = append(room.Participants, servicedef.Participant{
			UserID:   params.UserID,
			JoinedAt: formatTimestamp(time.Now()),
			Role:     servicedef.ParticipantRoleGuest,
		})
	}
	roomCopy := copyRoom(room)
	b.lock.Unlock()

	writeJSON(w, http.StatusOK, servicedef.RoomRep{
		Success: true,
		Room:    &roomCopy,
		Message: "Joined room successfully",
	})
}

func (b *BackendService) serveListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := make([]servicedef.Room, 0)
	b.lock.Lock()
	for _, room := range b.rooms {
		if room.Active {
			rooms = append(rooms, copyRoom(room))
		}
	}
	b.lock.Unlock()
	writeJSON(w, http.StatusOK, servicedef.ListRoomsRep{Success: true, Rooms: rooms})
}

func (b *BackendService) serveStats(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	stats := servicedef.Stats{
		TotalUsers: len(b.users),
		Timestamp:  formatTimestamp(time.Now()),
	}
	for _, room := range b.rooms {
		if room.Active {
			stats.ActiveRooms++
		}
	}
	for _, s := range b.sessions {
		if s.Active {
			stats.ActiveSessions++
		}
	}
	b.lock.Unlock()
	writeJSON(w, http.StatusOK, servicedef.StatsRep{Success: true, Stats: stats})
}

// The following methods must be called with the lock held.

func (b *BackendService) findUserByEmail(email string) *servicedef.User {
	for _, u := range b.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (b *BackendService) findActiveRoom(code string) *servicedef.Room {
	for _, room := range b.rooms {
		if room.Code == code && room.Active {
			return room
		}
	}
	return nil
}

func (b *BackendService) newRoomCode() string {
	for {
		code := make([]byte, servicedef.RoomCodeLength)
		for i := range code {
			code[i] = roomCodeAlphabet[b.random.Intn(len(roomCodeAlphabet))]
		}
		if b.findActiveRoom(string(code)) == nil {
			return string(code)
		}
	}
}

func copyRoom(room *servicedef.Room) servicedef.Room {
	ret := *room
	ret.Participants = helpers.CopyOf(room.Participants)
	return ret
}
