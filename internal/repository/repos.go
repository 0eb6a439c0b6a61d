package repository

import "github.com/evanmoran/ganttd/internal/db"

// Repos bundles all repositories built over one DBTX. Services that need
// transactional composition construct a fresh bundle from the transaction
// handle inside UnitOfWork.WithinTx.
type Repos struct {
	Organizations OrganizationRepo
	Users         UserRepo
	Projects      ProjectRepo
	Activities    ActivityRepo
	Tasks         TaskRepo
	Dependencies  DependencyRepo
	Constraints   ConstraintRepo
	Holidays      HolidayRepo
	RefreshTokens RefreshTokenRepo
}

// NewRepos creates the SQLite-backed bundle.
func NewRepos(dbtx db.DBTX) *Repos {
	return &Repos{
		Organizations: NewSQLiteOrganizationRepo(dbtx),
		Users:         NewSQLiteUserRepo(dbtx),
		Projects:      NewSQLiteProjectRepo(dbtx),
		Activities:    NewSQLiteActivityRepo(dbtx),
		Tasks:         NewSQLiteTaskRepo(dbtx),
		Dependencies:  NewSQLiteDependencyRepo(dbtx),
		Constraints:   NewSQLiteConstraintRepo(dbtx),
		Holidays:      NewSQLiteHolidayRepo(dbtx),
		RefreshTokens: NewSQLiteRefreshTokenRepo(dbtx),
	}
}
