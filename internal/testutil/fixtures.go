package testutil

import (
	"database/sql"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"complyflow/internal/models"
)

// Fixtures holds shared test data
type Fixtures struct {
	DB                *sql.DB
	AdminUser         *models.User
	ManagerUser       *models.User
	RegularUser       *models.User
	ChecklistTemplate *models.ChecklistTemplate
	AuditTemplate     *models.ChecklistTemplate
}

// SetupFixtures creates users for each role and one template of each kind.
// The roles themselves are seeded by the migrations.
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	fixtures := &Fixtures{DB: db}

	fixtures.AdminUser = createUser(t, db, "admin@test.com", "Admin", "User", "admin", "user")
	fixtures.ManagerUser = createUser(t, db, "manager@test.com", "Manager", "User", "manager", "user")
	fixtures.RegularUser = createUser(t, db, "user@test.com", "Regular", "User", "user")

	fixtures.ChecklistTemplate = createTemplate(t, db, models.TemplateKindChecklist, "Fire Safety Walkthrough", models.Sections{
		{ID: "s1", Name: "General", Items: []models.Item{
			{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
			{ID: "i2", Name: "Sprinklers operational", Kind: models.ItemKindYesNo, AutoFail: true},
			{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument},
		}},
	})

	weight := 3.0
	fixtures.AuditTemplate = createTemplate(t, db, models.TemplateKindAudit, "Quarterly Site Audit", models.Sections{
		{ID: "s1", Name: "Scored", Items: []models.Item{
			{ID: "w1", Name: "Waste segregation", Kind: models.ItemKindYesNo, Weight: &weight},
			{ID: "c1", Name: "Housekeeping standard", Kind: models.ItemKindChoice, Options: []models.ChoiceOption{
				{Label: "poor", Points: 0},
				{Label: "acceptable", Points: 2},
				{Label: "good", Points: 5},
			}},
			{ID: "p1", Name: "Operating permit", Kind: models.ItemKindDocument, AutoFail: true},
		}},
	})

	return fixtures
}

// createUser inserts a user and assigns the named roles
func createUser(t *testing.T, db *sql.DB, email, firstName, lastName string, roles ...string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
	}

	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, first_name, last_name, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, created_at, updated_at
	`, email, string(hash), firstName, lastName).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}

	for _, role := range roles {
		_, err := db.Exec(`
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2
		`, user.ID, role)
		if err != nil {
			t.Fatalf("Failed to assign role %s: %v", role, err)
		}
	}

	return user
}

// createTemplate inserts a checklist template
func createTemplate(t *testing.T, db *sql.DB, kind models.TemplateKind, title string, sections models.Sections) *models.ChecklistTemplate {
	t.Helper()

	template := &models.ChecklistTemplate{
		Kind:     kind,
		Title:    title,
		Sections: sections,
	}

	err := db.QueryRow(`
		INSERT INTO checklist_templates (title, kind, sections)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, title, kind, sections).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create template %s: %v", title, err)
	}

	return template
}
