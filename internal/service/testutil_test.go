package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Story{},
		&model.Comment{},
		&model.Reaction{},
	))
	return db
}

func seedStory(t *testing.T, db *gorm.DB, mutate func(*model.Story)) *model.Story {
	t.Helper()

	story := &model.Story{
		Title:   "The Lost Book",
		Content: "I left my notebook on the train and a stranger returned it to my office the next morning.",
		Excerpt: "I left my notebook on the train and a stranger returned it to my office the next morning.",
		Tags:    []string{model.DefaultTag},
		Author:  identity.FallbackAnonymous,
		Status:  model.StatusApproved,
	}
	if mutate != nil {
		mutate(story)
	}
	require.NoError(t, db.Create(story).Error)
	return story
}

func authedActor(uid, name string) identity.Identity {
	return identity.Identity{
		Class:       identity.ClassAuthenticated,
		OwnerKey:    uid,
		DisplayName: name,
	}
}

func shadowActor(uid string) identity.Identity {
	return identity.Identity{
		Class:       identity.ClassShadow,
		OwnerKey:    uid,
		DisplayName: identity.FallbackAnonymous,
		IsAnonymous: true,
	}
}

func pseudoActor(token string) identity.Identity {
	return identity.Identity{
		Class:       identity.ClassPseudo,
		OwnerKey:    identity.PseudoOwnerKey(token),
		DisplayName: identity.FallbackAnonymous,
		IsAnonymous: true,
	}
}
