package servicedef

const BackendServiceName = "LinguaSigna Backend Server"

const (
	HealthPath              = "/health"
	LoginPath               = "/auth/login"
	TranslationStartPath    = "/translation/start"
	TranslationSessionsPath = "/translation/sessions/{userId}"
	RoomsPath               = "/rooms"
	RoomsCreatePath         = "/rooms/create"
	RoomsJoinPath           = "/rooms/join"
	StatsPath               = "/stats"
)

const (
	RoomCodeLength         = 6
	DefaultMaxParticipants = 10
	ParticipantRoleCreator = "creator"
	ParticipantRoleGuest   = "participant"
)

// TranslationSessionsPathFor returns the session listing path for a user.
func TranslationSessionsPathFor(userID string) string {
	return "/translation/sessions/" + userID
}

type HealthRep struct {
	Status    string   `json:"status"`
	Service   string   `json:"service"`
	Timestamp string   `json:"timestamp"`
	Version   string   `json:"version,omitempty"`
	Endpoints []string `json:"endpoints,omitempty"`
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserSettings struct {
	SelectedLanguage     string  `json:"selectedLanguage"`
	AutoTranslate        bool    `json:"autoTranslate"`
	TranslationTextSize  float64 `json:"translationTextSize"`
	IsAutoDetectLanguage bool    `json:"isAutoDetectLanguage"`
}

type User struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Username  string       `json:"username"`
	Settings  UserSettings `json:"settings"`
	CreatedAt string       `json:"createdAt"`
}

type LoginRep struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type StartTranslationParams struct {
	UserID   string `json:"userId"`
	Language string `json:"language"`
}

type TranslationSession struct {
	ID                string `json:"id"`
	UserID            string `json:"userId"`
	Language          string `json:"language"`
	StartTime         string `json:"startTime"`
	Active            bool   `json:"active"`
	TranslationsCount int    `json:"translationsCount"`
}

type StartTranslationRep struct {
	Success bool                `json:"success"`
	Session *TranslationSession `json:"session,omitempty"`
	Message string              `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type ListSessionsRep struct {
	Success  bool                 `json:"success"`
	Sessions []TranslationSession `json:"sessions"`
	Error    string               `json:"error,omitempty"`
}

type CreateRoomParams struct {
	UserID string `json:"userId"`
}

type JoinRoomParams struct {
	RoomCode string `json:"roomCode"`
	UserID   string `json:"userId"`
}

type Participant struct {
	UserID   string `json:"userId"`
	JoinedAt string `json:"joinedAt"`
	Role     string `json:"role"`
}

type Room struct {
	ID              string        `json:"id"`
	Code            string        `json:"code"`
	CreatorID       string        `json:"creatorId"`
	Participants    []Participant `json:"participants"`
	MaxParticipants int           `json:"maxParticipants"`
	Active          bool          `json:"active"`
	CreatedAt       string        `json:"createdAt"`
}

type RoomRep struct {
	Success bool   `json:"success"`
	Room    *Room  `json:"room,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ListRoomsRep struct {
	Success bool   `json:"success"`
	Rooms   []Room `json:"rooms"`
}

type Stats struct {
	TotalUsers     int    `json:"totalUsers"`
	ActiveRooms    int    `json:"activeRooms"`
	ActiveSessions int    `json:"activeSessions"`
	Timestamp      string `json:"timestamp"`
}

type StatsRep struct {
	Success bool  `json:"success"`
	Stats   Stats `json:"stats"`
}

type ErrorRep struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
