package users

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type seedFile struct {
	Users []struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile creates the accounts listed in a YAML file:
//
//	users:
//	  - email: root@example.com
//	    password: change-me-now
//	    role: superadmin
//
// Existing emails are left untouched. It returns the number of users created.
func SeedFromFile(ctx context.Context, store Store, hasher PasswordHasher, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return 0, fmt.Errorf("users: parse seed file: %w", err)
	}

	created := 0
	for i, su := range sf.Users {
		if su.Email == "" || su.Password == "" {
			return created, fmt.Errorf("%w: seed entry %d needs email and password", ErrInvalidInput, i)
		}
		role := RoleUser
		if su.Role != "" {
			if role, err = ParseRole(su.Role); err != nil {
				return created, fmt.Errorf("seed entry %d: %w", i, err)
			}
		}
		if _, err := store.FindByEmail(ctx, su.Email); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return created, err
		}
		hash, err := hasher.Hash(su.Password)
		if err != nil {
			return created, err
		}
		if _, err := store.Insert(ctx, NewUser{Email: su.Email, PasswordHash: hash, Role: role}); err != nil {
			if errors.Is(err, ErrEmailTaken) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
