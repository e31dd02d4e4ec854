package repositories

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Dosada05/swiss-tournament/models"
)

type StandingRepository interface {
	// ListByTournament returns every enrolled player ordered by wins desc,
	// then OMW desc when withOMW is set, then player id.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, withOMW bool) ([]models.StandingRow, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, withOMW bool) ([]models.StandingRow, error) {
	queryBuilder := strings.Builder{}
	if withOMW {
		queryBuilder.WriteString(`SELECT t_id, p_id, name, wins, matches, omw FROM standings_omw`)
	} else {
		queryBuilder.WriteString(`SELECT t_id, p_id, name, wins, matches FROM standings`)
	}
	queryBuilder.WriteString(" WHERE t_id = $1")
	if withOMW {
		queryBuilder.WriteString(" ORDER BY wins DESC, omw DESC, p_id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY wins DESC, p_id ASC")
	}

	rows, err := executorOr(exec, r.db).QueryContext(ctx, queryBuilder.String(), tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]models.StandingRow, 0)
	for rows.Next() {
		var s models.StandingRow
		dest := []interface{}{&s.TournamentID, &s.PlayerID, &s.Name, &s.Wins, &s.MatchesPlayed}
		if withOMW {
			var omw int
			dest = append(dest, &omw)
			if err := rows.Scan(dest...); err != nil {
				return nil, err
			}
			s.OMW = &omw
		} else if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}
