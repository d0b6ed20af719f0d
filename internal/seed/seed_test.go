package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/mclass/internal/app/models"
	appRepos "github.com/yigit/mclass/internal/app/repositories"
	"github.com/yigit/mclass/internal/pkg/auth"
	"github.com/yigit/mclass/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateDefaultAdminIsIdempotent(t *testing.T) {
	auth.BcryptCost = bcrypt.MinCost
	database := testutil.NewSQLiteDB(t)
	userRepo := appRepos.NewUserRepository(database)
	ctx := context.Background()
	admin := AdminAccount{Email: "Admin@MClass.app", Password: "Admin123!"}

	created, err := CreateDefaultAdmin(ctx, userRepo, admin, zerolog.Nop())
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}

	created, err = CreateDefaultAdmin(ctx, userRepo, admin, zerolog.Nop())
	if err != nil || created {
		t.Fatalf("second seed: created=%v err=%v", created, err)
	}

	user, err := userRepo.GetByEmail(ctx, "admin@mclass.app")
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleAdmin || user.Name != "Administrator" {
		t.Errorf("seeded user = %+v", user)
	}
	if !auth.CheckPassword(user.Password, "Admin123!") {
		t.Error("seeded password does not verify")
	}
}
