package service

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx/types"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// assembleSchedule rebuilds an in-memory schedule from stored team and match
// rows. Team objects are shared across matches and player objects are shared
// across divisions by name, so cross-division workload rules see the same
// person.
func assembleSchedule(teams []models.TournamentTeam, rows []models.StoredMatch) (*models.Schedule, error) {
	teamIndex := make(map[string]*models.Team, len(teams))
	playerIndex := make(map[string]*models.Player)

	for _, entry := range teams {
		team := &models.Team{Name: entry.Name, Division: entry.Division}
		for _, name := range entry.Players {
			player, ok := playerIndex[name]
			if !ok {
				player = &models.Player{Name: name, TeamNames: map[models.Division]string{}}
				playerIndex[name] = player
			}
			player.TeamNames[entry.Division] = entry.Name
			team.Players = append(team.Players, player)
		}
		teamIndex[team.Key()] = team
	}

	resolve := func(division models.Division, name string) (*models.Team, error) {
		team, ok := teamIndex[string(division)+"/"+name]
		if !ok {
			return nil, fmt.Errorf("team %q is not entered in division %s", name, division)
		}
		return team, nil
	}

	matches := make([]*models.Match, 0, len(rows))
	for _, row := range rows {
		team1, err := resolve(row.Division, row.Team1)
		if err != nil {
			return nil, err
		}
		team2, err := resolve(row.Division, row.Team2)
		if err != nil {
			return nil, err
		}
		match := &models.Match{
			Team1:    team1,
			Team2:    team2,
			TimeSlot: row.TimeSlot,
			Field:    row.Field,
			Division: row.Division,
			Activity: row.Activity,
			Locked:   row.Locked,
		}
		if row.Referee != nil && *row.Referee != "" {
			division := row.Division
			if row.RefereeDivision != nil {
				division = *row.RefereeDivision
			}
			referee, ok := teamIndex[string(division)+"/"+*row.Referee]
			if !ok {
				// Older rows carry no referee division; accept the name when
				// it identifies exactly one team across divisions.
				referee = findTeamByName(teamIndex, *row.Referee)
			}
			if referee == nil {
				return nil, fmt.Errorf("referee team %q is not entered in the tournament", *row.Referee)
			}
			match.Referee = referee
		}
		matches = append(matches, match)
	}

	return models.NewSchedule(matches)
}

// findTeamByName returns the team when exactly one division entry carries the
// name, nil otherwise.
func findTeamByName(teamIndex map[string]*models.Team, name string) *models.Team {
	var found *models.Team
	for _, team := range teamIndex {
		if team.Name != name {
			continue
		}
		if found != nil {
			return nil
		}
		found = team
	}
	return found
}

// storedMatchesFrom flattens a schedule into persistable match rows.
func storedMatchesFrom(s *models.Schedule) []models.StoredMatch {
	rows := make([]models.StoredMatch, 0, len(s.Matches))
	for _, match := range s.Matches {
		row := models.StoredMatch{
			TimeSlot: match.TimeSlot,
			Field:    match.Field,
			Division: match.Division,
			Team1:    match.Team1.Name,
			Team2:    match.Team2.Name,
			Activity: match.Activity,
			Locked:   match.Locked,
		}
		if match.Referee != nil {
			name := match.Referee.Name
			division := match.Referee.Division
			row.Referee = &name
			row.RefereeDivision = &division
		}
		rows = append(rows, row)
	}
	return rows
}

// violationsJSON serialises violations for the schedules table.
func violationsJSON(violations []models.Violation) types.JSONText {
	views := violationViews(violations)
	payload, err := json.Marshal(views)
	if err != nil {
		return types.JSONText(`[]`)
	}
	return types.JSONText(payload)
}

func violationViews(violations []models.Violation) []dto.ViolationView {
	views := make([]dto.ViolationView, 0, len(violations))
	for _, v := range violations {
		views = append(views, dto.ViolationView{
			Rule:        v.Rule,
			Description: v.Description,
			Level:       v.Level.String(),
		})
	}
	return views
}

func matchViews(rows []models.StoredMatch) []dto.MatchView {
	views := make([]dto.MatchView, 0, len(rows))
	for _, row := range rows {
		views = append(views, dto.MatchView{
			TimeSlot:        row.TimeSlot,
			Field:           row.Field,
			Division:        row.Division,
			Team1:           row.Team1,
			Team2:           row.Team2,
			Referee:         row.Referee,
			RefereeDivision: row.RefereeDivision,
			Activity:        row.Activity,
			Locked:          row.Locked,
		})
	}
	return views
}

func scheduleResponse(schedule *models.StoredSchedule, rows []models.StoredMatch) dto.ScheduleResponse {
	resp := dto.ScheduleResponse{
		ID:           schedule.ID,
		TournamentID: schedule.TournamentID,
		Version:      schedule.Version,
		Status:       schedule.Status,
		Score:        schedule.Score,
		Matches:      matchViews(rows),
		CreatedAt:    schedule.CreatedAt,
	}
	if len(schedule.Violations) > 0 {
		var views []dto.ViolationView
		if err := json.Unmarshal(schedule.Violations, &views); err == nil {
			resp.Violations = views
		}
	}
	return resp
}
