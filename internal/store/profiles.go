package store

import (
	"context"
	"strings"

	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"

	"gorm.io/gorm"
)

const tableProfiles = "user_profiles"

// ProfilePatch holds the editable profile fields; nil means unchanged.
type ProfilePatch struct {
	Username *string
	FullName *string
	JobTitle *string
	Bio      *string
}

// CreateAccount inserts the auth identity and its profile together.
func CreateAccount(ctx context.Context, email, passwordHash, username, fullName string) (*models.User, *models.UserProfile, error) {
	user := models.User{
		ID:           newID(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
	}
	profile := models.UserProfile{
		ID:       user.ID,
		Username: strings.TrimSpace(username),
		FullName: strings.TrimSpace(fullName),
	}
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		return nil, nil, translate(err)
	}
	publish(realtime.Insert, tableProfiles, profile.ID, profile, nil)
	return &user, &profile, nil
}

func GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := db(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := db(ctx).First(&u, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindUserByUsername resolves a username through the profile table.
func FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := db(ctx).
		Joins("JOIN user_profiles ON user_profiles.id = users.id").
		Where("user_profiles.username = ?", strings.TrimSpace(username)).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := db(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	err := db(ctx).Order("username asc").Find(&profiles).Error
	return profiles, translate(err)
}

// ProfilesByID loads the given profiles keyed by id.
func ProfilesByID(ctx context.Context, ids []string) (map[string]models.UserProfile, error) {
	out := make(map[string]models.UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []models.UserProfile
	if err := db(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, translate(err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.UserProfile, error) {
	p, err := GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Username != nil {
		p.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.FullName != nil {
		p.FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.JobTitle != nil {
		p.JobTitle = *patch.JobTitle
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if err := db(ctx).Save(p).Error; err != nil {
		return nil, translate(err)
	}
	publish(realtime.Update, tableProfiles, p.ID, *p, nil)
	return p, nil
}

// SetAvatarURL points the profile at a stored avatar object.
func SetAvatarURL(ctx context.Context, id, url string) (*models.UserProfile, error) {
	p, err := GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db(ctx).Model(p).Update("avatar_url", url).Error; err != nil {
		return nil, translate(err)
	}
	p.AvatarURL = url
	publish(realtime.Update, tableProfiles, p.ID, *p, nil)
	return p, nil
}
