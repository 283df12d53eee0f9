package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/elstracker/elstracker/internal/config"
	"github.com/elstracker/elstracker/internal/database/migrations"
)

func newTestDB(t *testing.T) *DBImpl {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		DBDriver:           DriverSQLite,
		DBConnectionString: "file::memory:?_pragma=foreign_keys(1)",
		DBQueryLogLevel:    "debug",
	}

	db, err := Open(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = migrations.Migrate(ctx, db.BunDB(), logger); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return db
}

type fixtures struct {
	europe    Server
	korea     Server
	swordsman Class
	mage      Class
	knight    Specialization
	sorcerer  Specialization
	rankE     PvPRank
}

func seedFixtures(t *testing.T, db *DBImpl) fixtures {
	t.Helper()

	ctx := context.Background()
	f := fixtures{
		europe:    Server{Name: "Europe"},
		korea:     Server{Name: "Korea"},
		swordsman: Class{Name: "Swordsman", IconURL: "x"},
		mage:      Class{Name: "Mage", IconURL: "y"},
		rankE:     PvPRank{Name: "E"},
	}

	for _, server := range []*Server{&f.europe, &f.korea} {
		if _, err := db.CreateServerIfNotExists(ctx, server); err != nil {
			t.Fatalf("CreateServerIfNotExists(%s) error = %v", server.Name, err)
		}
	}

	for _, class := range []*Class{&f.swordsman, &f.mage} {
		if _, err := db.CreateClassIfNotExists(ctx, class); err != nil {
			t.Fatalf("CreateClassIfNotExists(%s) error = %v", class.Name, err)
		}
	}

	f.knight = Specialization{ClassID: f.swordsman.ID, Name: "Knight", IconURL: "k"}
	f.sorcerer = Specialization{ClassID: f.mage.ID, Name: "Sorcerer", IconURL: "s"}
	for _, specialization := range []*Specialization{&f.knight, &f.sorcerer} {
		if _, err := db.CreateSpecializationIfNotExists(ctx, specialization); err != nil {
			t.Fatalf("CreateSpecializationIfNotExists(%s) error = %v", specialization.Name, err)
		}
	}

	if _, err := db.CreatePvPRankIfNotExists(ctx, &f.rankE); err != nil {
		t.Fatalf("CreatePvPRankIfNotExists() error = %v", err)
	}

	return f
}

func countRows(t *testing.T, db *DBImpl, model any) int {
	t.Helper()

	n, err := db.BunDB().NewSelect().Model(model).Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}

	return n
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateAccountThenGetAccountByID(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	created, err := db.CreateAccount(ctx, &Account{
		ServerID:       f.korea.ID,
		Username:       "Alice",
		IsSteam:        true,
		ResonanceLevel: 42,
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("CreateAccount() did not assign an id")
	}

	got, err := db.GetAccountByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAccountByID() error = %v", err)
	}

	if got.ID != created.ID || got.ServerID != created.ServerID || got.Username != created.Username ||
		got.IsSteam != created.IsSteam || got.ResonanceLevel != created.ResonanceLevel {
		t.Fatalf("GetAccountByID() = %+v, want %+v", got, created)
	}
	if got.Server == nil || got.Server.Name != "Korea" {
		t.Fatalf("GetAccountByID() server = %+v, want Korea", got.Server)
	}
	if len(got.Characters) != 0 {
		t.Fatalf("GetAccountByID() characters = %d, want 0", len(got.Characters))
	}
}

func TestCreateAccountConflict(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	if _, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Bob"}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	_, err := db.CreateAccount(ctx, &Account{ServerID: f.korea.ID, Username: "Bob", IsSteam: true})
	if !errors.Is(err, ErrAccountNameNotUnique) {
		t.Fatalf("CreateAccount() error = %v, want %v", err, ErrAccountNameNotUnique)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("CreateAccount() error = %v, want it to wrap %v", err, ErrConflict)
	}

	if n := countRows(t, db, (*Account)(nil)); n != 1 {
		t.Fatalf("account rows = %d, want 1", n)
	}
}

func TestCreateAccountRejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	tests := []struct {
		name    string
		account Account
		wantErr error
	}{
		{"blank username", Account{ServerID: f.europe.ID, Username: "   "}, ErrInvalidInput},
		{"negative resonance", Account{ServerID: f.europe.ID, Username: "Neg", ResonanceLevel: -1}, ErrInvalidInput},
		{"unknown server", Account{ServerID: 9999, Username: "Lost"}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateAccount(ctx, &tt.account)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateAccount() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if n := countRows(t, db, (*Account)(nil)); n != 0 {
		t.Fatalf("account rows = %d, want 0", n)
	}
}

func TestAccountWithCharacterExpansion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	europe := Server{Name: "Europe"}
	if _, err := db.CreateServerIfNotExists(ctx, &europe); err != nil {
		t.Fatalf("CreateServerIfNotExists() error = %v", err)
	}

	alice, err := db.CreateAccount(ctx, &Account{Username: "Alice", ServerID: europe.ID, IsSteam: false, ResonanceLevel: 0})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	swordsman := Class{Name: "Swordsman", IconURL: "x"}
	if _, err = db.CreateClassIfNotExists(ctx, &swordsman); err != nil {
		t.Fatalf("CreateClassIfNotExists() error = %v", err)
	}

	if _, err = db.CreateCharacter(ctx, &Character{Username: "Al1", AccountID: alice.ID, ClassID: swordsman.ID, Level: 1}); err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	got, err := db.GetAccountByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetAccountByID() error = %v", err)
	}

	if len(got.Characters) != 1 {
		t.Fatalf("GetAccountByID() characters = %d, want 1", len(got.Characters))
	}
	if got.Characters[0].Class == nil || got.Characters[0].Class.Name != "Swordsman" {
		t.Fatalf("GetAccountByID() character class = %+v, want Swordsman", got.Characters[0].Class)
	}
	if got.Characters[0].Specialization != nil || got.Characters[0].PvPRank != nil {
		t.Fatalf("GetAccountByID() character = %+v, want no specialization or rank", got.Characters[0])
	}
}

func TestGetAllAccounts(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	first, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "First"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	second, err := db.CreateAccount(ctx, &Account{ServerID: f.korea.ID, Username: "Second"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	_, err = db.CreateCharacter(ctx, &Character{
		AccountID:        second.ID,
		ClassID:          f.mage.ID,
		Username:         "Caster",
		Level:            70,
		SpecializationID: &f.sorcerer.ID,
		PvPRankID:        &f.rankE.ID,
	})
	if err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	accounts, err := db.GetAllAccounts(ctx)
	if err != nil {
		t.Fatalf("GetAllAccounts() error = %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("GetAllAccounts() = %d accounts, want 2", len(accounts))
	}
	if accounts[0].ID != first.ID || accounts[1].ID != second.ID {
		t.Fatalf("GetAllAccounts() order = [%d %d], want [%d %d]", accounts[0].ID, accounts[1].ID, first.ID, second.ID)
	}

	caster := accounts[1].Characters
	if len(caster) != 1 {
		t.Fatalf("GetAllAccounts() second account characters = %d, want 1", len(caster))
	}
	if caster[0].Specialization == nil || caster[0].Specialization.Name != "Sorcerer" {
		t.Fatalf("character specialization = %+v, want Sorcerer", caster[0].Specialization)
	}
	if caster[0].PvPRank == nil || caster[0].PvPRank.Name != "E" {
		t.Fatalf("character pvp rank = %+v, want E", caster[0].PvPRank)
	}

	byServer, err := db.GetAccountsByServerID(ctx, f.europe.ID)
	if err != nil {
		t.Fatalf("GetAccountsByServerID() error = %v", err)
	}
	if len(byServer) != 1 || byServer[0].Username != "First" {
		t.Fatalf("GetAccountsByServerID() = %+v, want only First", byServer)
	}
}

func TestDeleteAccountCascadesCharacters(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	account, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Owner"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	for _, name := range []string{"One", "Two", "Three"} {
		if _, err = db.CreateCharacter(ctx, &Character{AccountID: account.ID, ClassID: f.swordsman.ID, Username: name}); err != nil {
			t.Fatalf("CreateCharacter(%s) error = %v", name, err)
		}
	}

	deleted, err := db.DeleteAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("DeleteAccountByID() error = %v", err)
	}
	if deleted.ID != account.ID || deleted.Username != "Owner" {
		t.Fatalf("DeleteAccountByID() = %+v, want %+v", deleted, account)
	}

	characters, err := db.GetCharactersByAccountID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetCharactersByAccountID() error = %v", err)
	}
	if len(characters) != 0 {
		t.Fatalf("GetCharactersByAccountID() = %d characters, want 0", len(characters))
	}

	if _, err = db.GetAccountByID(ctx, account.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAccountByID() error = %v, want %v", err, ErrNotFound)
	}
}

func TestMissingIDsAreNotFound(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	account, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Keeper"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if _, err = db.CreateCharacter(ctx, &Character{AccountID: account.ID, ClassID: f.mage.ID, Username: "Kept"}); err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	const missing = int64(424242)
	tests := []struct {
		name string
		call func() error
	}{
		{"GetAccountByID", func() error { _, err := db.GetAccountByID(ctx, missing); return err }},
		{"DeleteAccountByID", func() error { _, err := db.DeleteAccountByID(ctx, missing); return err }},
		{"UpdateAccount", func() error { _, err := db.UpdateAccount(ctx, missing, AccountPatch{IsSteam: ptr(true)}); return err }},
		{"GetCharacterByID", func() error { _, err := db.GetCharacterByID(ctx, missing); return err }},
		{"DeleteCharacterByID", func() error { _, err := db.DeleteCharacterByID(ctx, missing); return err }},
		{"UpdateCharacter", func() error { _, err := db.UpdateCharacter(ctx, missing, CharacterPatch{Level: ptr(5)}); return err }},
		{"GetServerByName", func() error { _, err := db.GetServerByName(ctx, "Atlantis"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrNotFound) {
				t.Fatalf("%s() error = %v, want %v", tt.name, err, ErrNotFound)
			}
		})
	}

	if n := countRows(t, db, (*Account)(nil)); n != 1 {
		t.Fatalf("account rows = %d, want 1", n)
	}
	if n := countRows(t, db, (*Character)(nil)); n != 1 {
		t.Fatalf("character rows = %d, want 1", n)
	}
}

func TestCreateCharacter(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	account, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Player"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	t.Run("defaults level to 1", func(t *testing.T) {
		character, err := db.CreateCharacter(ctx, &Character{AccountID: account.ID, ClassID: f.swordsman.ID, Username: "Fresh"})
		if err != nil {
			t.Fatalf("CreateCharacter() error = %v", err)
		}
		if character.Level != 1 {
			t.Fatalf("CreateCharacter() level = %d, want 1", character.Level)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := db.CreateCharacter(ctx, &Character{AccountID: account.ID, ClassID: f.mage.ID, Username: "Fresh"})
		if !errors.Is(err, ErrCharacterNameNotUnique) {
			t.Fatalf("CreateCharacter() error = %v, want %v", err, ErrCharacterNameNotUnique)
		}
	})

	t.Run("specialization of another class", func(t *testing.T) {
		_, err := db.CreateCharacter(ctx, &Character{
			AccountID:        account.ID,
			ClassID:          f.swordsman.ID,
			Username:         "Mismatch",
			Level:            10,
			SpecializationID: &f.sorcerer.ID,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("CreateCharacter() error = %v, want %v", err, ErrInvalidInput)
		}
	})

	t.Run("unknown specialization", func(t *testing.T) {
		_, err := db.CreateCharacter(ctx, &Character{
			AccountID:        account.ID,
			ClassID:          f.swordsman.ID,
			Username:         "Ghost",
			SpecializationID: ptr(int64(777)),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("CreateCharacter() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		_, err := db.CreateCharacter(ctx, &Character{AccountID: account.ID, ClassID: 777, Username: "Classless"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("CreateCharacter() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("unknown class with a real specialization", func(t *testing.T) {
		_, err := db.CreateCharacter(ctx, &Character{
			AccountID:        account.ID,
			ClassID:          9999,
			Username:         "Drifter",
			SpecializationID: &f.knight.ID,
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("CreateCharacter() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("level out of range", func(t *testing.T) {
		for _, level := range []int{-1, 100} {
			_, err := db.CreateCharacter(ctx, &Character{AccountID: account.ID, ClassID: f.swordsman.ID, Username: "Odd", Level: level})
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("CreateCharacter(level %d) error = %v, want %v", level, err, ErrInvalidInput)
			}
		}
	})

	if n := countRows(t, db, (*Character)(nil)); n != 1 {
		t.Fatalf("character rows = %d, want 1", n)
	}
}

func TestUpdateAccount(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	account, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Before"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if _, err = db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Taken"}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	updated, err := db.UpdateAccount(ctx, account.ID, AccountPatch{ResonanceLevel: ptr(9), ServerID: &f.korea.ID})
	if err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	if updated.Username != "Before" || updated.ResonanceLevel != 9 || updated.ServerID != f.korea.ID {
		t.Fatalf("UpdateAccount() = %+v, want username Before, resonance 9, server %d", updated, f.korea.ID)
	}

	_, err = db.UpdateAccount(ctx, account.ID, AccountPatch{Username: ptr("Taken")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("UpdateAccount() error = %v, want %v", err, ErrConflict)
	}

	got, err := db.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID() error = %v", err)
	}
	if got.Username != "Before" || got.ResonanceLevel != 9 {
		t.Fatalf("GetAccountByID() = %+v, want the first patch only", got)
	}
}

func TestUpdateCharacter(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	account, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Patcher"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	character, err := db.CreateCharacter(ctx, &Character{
		AccountID:        account.ID,
		ClassID:          f.swordsman.ID,
		Username:         "Blade",
		SpecializationID: &f.knight.ID,
	})
	if err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	t.Run("changing class keeps the old specialization invalid", func(t *testing.T) {
		_, err := db.UpdateCharacter(ctx, character.ID, CharacterPatch{ClassID: &f.mage.ID})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("UpdateCharacter() error = %v, want %v", err, ErrInvalidInput)
		}
	})

	t.Run("class and specialization together", func(t *testing.T) {
		updated, err := db.UpdateCharacter(ctx, character.ID, CharacterPatch{
			ClassID:          &f.mage.ID,
			SpecializationID: &f.sorcerer.ID,
			Level:            ptr(99),
			PvPRankID:        &f.rankE.ID,
		})
		if err != nil {
			t.Fatalf("UpdateCharacter() error = %v", err)
		}
		if updated.ClassID != f.mage.ID || updated.Level != 99 || updated.PvPRankID == nil || *updated.PvPRankID != f.rankE.ID {
			t.Fatalf("UpdateCharacter() = %+v", updated)
		}
	})

	t.Run("clear references", func(t *testing.T) {
		updated, err := db.UpdateCharacter(ctx, character.ID, CharacterPatch{ClearSpecialization: true, ClearPvPRank: true})
		if err != nil {
			t.Fatalf("UpdateCharacter() error = %v", err)
		}
		if updated.SpecializationID != nil || updated.PvPRankID != nil {
			t.Fatalf("UpdateCharacter() = %+v, want cleared references", updated)
		}
	})
}

func TestDeleteCharacterByID(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	account, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Holder"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	character, err := db.CreateCharacter(ctx, &Character{AccountID: account.ID, ClassID: f.mage.ID, Username: "Gone"})
	if err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	deleted, err := db.DeleteCharacterByID(ctx, character.ID)
	if err != nil {
		t.Fatalf("DeleteCharacterByID() error = %v", err)
	}
	if deleted.ID != character.ID || deleted.AccountID != account.ID {
		t.Fatalf("DeleteCharacterByID() = %+v, want %+v", deleted, character)
	}

	if _, err = db.GetCharacterByID(ctx, character.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCharacterByID() error = %v, want %v", err, ErrNotFound)
	}
	if _, err = db.GetAccountByID(ctx, account.ID); err != nil {
		t.Fatalf("GetAccountByID() error = %v", err)
	}
}

func TestReferenceDeletesSetNull(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	account, err := db.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Ranked"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	character, err := db.CreateCharacter(ctx, &Character{
		AccountID:        account.ID,
		ClassID:          f.swordsman.ID,
		Username:         "Knighted",
		SpecializationID: &f.knight.ID,
		PvPRankID:        &f.rankE.ID,
	})
	if err != nil {
		t.Fatalf("CreateCharacter() error = %v", err)
	}

	if _, err = db.BunDB().NewDelete().Model((*Specialization)(nil)).Where("id = ?", f.knight.ID).Exec(ctx); err != nil {
		t.Fatalf("delete specialization error = %v", err)
	}
	if _, err = db.BunDB().NewDelete().Model((*PvPRank)(nil)).Where("id = ?", f.rankE.ID).Exec(ctx); err != nil {
		t.Fatalf("delete pvp rank error = %v", err)
	}

	got, err := db.GetCharacterByID(ctx, character.ID)
	if err != nil {
		t.Fatalf("GetCharacterByID() error = %v", err)
	}
	if got.SpecializationID != nil || got.PvPRankID != nil {
		t.Fatalf("GetCharacterByID() = %+v, want null specialization and rank", got)
	}
	if got.Class == nil || got.Class.Name != "Swordsman" {
		t.Fatalf("GetCharacterByID() class = %+v, want Swordsman", got.Class)
	}
}

func TestInsertIfNotExists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inserted, err := db.CreateServerIfNotExists(ctx, &Server{Name: "Europe"})
	if err != nil || !inserted {
		t.Fatalf("CreateServerIfNotExists() = %v, %v, want true, nil", inserted, err)
	}

	inserted, err = db.CreateServerIfNotExists(ctx, &Server{Name: "Europe"})
	if err != nil || inserted {
		t.Fatalf("CreateServerIfNotExists() second call = %v, %v, want false, nil", inserted, err)
	}

	class := Class{Name: "Swordsman", IconURL: "x"}
	if _, err = db.CreateClassIfNotExists(ctx, &class); err != nil {
		t.Fatalf("CreateClassIfNotExists() error = %v", err)
	}
	inserted, err = db.CreateClassIfNotExists(ctx, &Class{Name: "Swordsman", IconURL: "other"})
	if err != nil || inserted {
		t.Fatalf("CreateClassIfNotExists() second call = %v, %v, want false, nil", inserted, err)
	}

	existing, err := db.GetClassByName(ctx, "Swordsman")
	if err != nil {
		t.Fatalf("GetClassByName() error = %v", err)
	}
	if existing.ID != class.ID || existing.IconURL != "x" {
		t.Fatalf("GetClassByName() = %+v, want the first insert", existing)
	}

	if _, err = db.CreatePvPRankIfNotExists(ctx, &PvPRank{Name: "Z"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("CreatePvPRankIfNotExists() error = %v, want %v", err, ErrInvalidInput)
	}

	if n := countRows(t, db, (*Server)(nil)); n != 1 {
		t.Fatalf("server rows = %d, want 1", n)
	}
	if n := countRows(t, db, (*Class)(nil)); n != 1 {
		t.Fatalf("class rows = %d, want 1", n)
	}
}

func TestGetAllClassesIncludesSpecializations(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	classes, err := db.GetAllClasses(ctx)
	if err != nil {
		t.Fatalf("GetAllClasses() error = %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("GetAllClasses() = %d classes, want 2", len(classes))
	}
	if len(classes[0].Specializations) != 1 || classes[0].Specializations[0].Name != "Knight" {
		t.Fatalf("GetAllClasses() first class specializations = %+v, want Knight", classes[0].Specializations)
	}

	specializations, err := db.GetSpecializationsByClassID(ctx, f.mage.ID)
	if err != nil {
		t.Fatalf("GetSpecializationsByClassID() error = %v", err)
	}
	if len(specializations) != 1 || specializations[0].Name != "Sorcerer" {
		t.Fatalf("GetSpecializationsByClassID() = %+v, want Sorcerer", specializations)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := db.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.CreateAccount(ctx, &Account{ServerID: f.europe.ID, Username: "Temporary"}); err != nil {
			return err
		}

		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("RunInTx() error = %v, want %v", err, errBoom)
	}

	if n := countRows(t, db, (*Account)(nil)); n != 0 {
		t.Fatalf("account rows = %d, want 0", n)
	}
}

func TestReferenceReads(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	ctx := context.Background()

	specializations, err := db.GetAllSpecializations(ctx)
	if err != nil {
		t.Fatalf("GetAllSpecializations() error = %v", err)
	}
	if len(specializations) != 2 {
		t.Fatalf("GetAllSpecializations() = %+v, want 2", specializations)
	}

	sorcerer, err := db.GetSpecializationByID(ctx, f.sorcerer.ID)
	if err != nil {
		t.Fatalf("GetSpecializationByID() error = %v", err)
	}
	if sorcerer.Name != "Sorcerer" || sorcerer.ClassID != f.mage.ID {
		t.Fatalf("GetSpecializationByID() = %+v, want Sorcerer of Mage", sorcerer)
	}

	ranks, err := db.GetAllPvPRanks(ctx)
	if err != nil {
		t.Fatalf("GetAllPvPRanks() error = %v", err)
	}
	if len(ranks) != 1 || ranks[0].Name != "E" {
		t.Fatalf("GetAllPvPRanks() = %+v, want only E", ranks)
	}

	if _, err = db.CreatePvPRankIfNotExists(ctx, &PvPRank{Name: "Z"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("CreatePvPRankIfNotExists(Z) error = %v, want %v", err, ErrInvalidInput)
	}
}

func TestCreateSpecializationForUnknownClass(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inserted, err := db.CreateSpecializationIfNotExists(ctx, &Specialization{ClassID: 9999, Name: "Orphan", IconURL: "o"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("CreateSpecializationIfNotExists() error = %v, want %v", err, ErrNotFound)
	}
	if inserted {
		t.Fatalf("CreateSpecializationIfNotExists() inserted = true, want false")
	}

	if n := countRows(t, db, (*Specialization)(nil)); n != 0 {
		t.Fatalf("specializations = %d, want 0", n)
	}
}
