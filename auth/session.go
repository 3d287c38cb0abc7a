package auth

import (
	"memories/db"
	"memories/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) LoginUser(id uint64) {
	s.Set(userIDKey, id)
	_ = s.Save()
}

func (s *Session) LogoutUser() {
	s.Delete(userIDKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
}

// User loads the session's account with roles preloaded. A zero-ID user
// means "not signed in" (or the database being down).
func (s *Session) User() (user models.User) {
	id, ok := s.Get(userIDKey).(uint64)
	if !ok || !db.Available() {
		return
	}
	user.ID = id
	if db.Instance.Preload("Roles").First(&user).Error != nil {
		user = models.User{}
	}
	return
}
