// Package seeder loads the reference data (servers, PvP ranks, classes and
// specializations) that accounts and characters point at. Every write is an
// insert-or-ignore keyed on the entity name, so runs can be repeated safely.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/elstracker/elstracker/internal/database"
)

const wikiImages = "https://elwiki.net/wiki/images/"

var ServerNames = []string{"Europe", "North America", "Korea"}

// pvpRankIcons holds the badge for every rank except Unranked.
var pvpRankIcons = map[string]string{
	"E":    wikiImages + "7/76/RankE3.png",
	"D":    wikiImages + "c/c2/RankD3.png",
	"C":    wikiImages + "2/29/RankC3.png",
	"B":    wikiImages + "a/ab/RankB3.png",
	"A":    wikiImages + "5/56/RankA3.png",
	"S":    wikiImages + "b/b9/RankS3.png",
	"SS":   wikiImages + "a/aa/RankSS3.png",
	"SSS":  wikiImages + "5/5d/RankSSS3.png",
	"Star": wikiImages + "7/7b/RankStar3.png",
}

type Counts struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

func (c *Counts) record(inserted bool) {
	if inserted {
		c.Inserted++
	} else {
		c.Skipped++
	}
}

type Report struct {
	Servers         Counts `json:"servers"`
	PvPRanks        Counts `json:"pvpRanks"`
	Classes         Counts `json:"classes"`
	Specializations Counts `json:"specializations"`
}

type Seeder struct {
	db     database.DB
	source Source
	log    *slog.Logger
}

func New(db database.DB, source Source, logger *slog.Logger) *Seeder {
	return &Seeder{
		db:     db,
		source: source,
		log:    logger,
	}
}

// Run seeds the scraped class trees followed by the static servers and ranks.
// The first failure aborts the run.
func (s *Seeder) Run(ctx context.Context) (Report, error) {
	var report Report

	if err := s.seedClasses(ctx, &report); err != nil {
		return report, err
	}

	if err := s.seedStatic(ctx, &report); err != nil {
		return report, err
	}

	s.log.Info("seeding completed", "report", report)
	return report, nil
}

// SeedStatic seeds only the servers and PvP ranks.
func (s *Seeder) SeedStatic(ctx context.Context) (Report, error) {
	var report Report

	if err := s.seedStatic(ctx, &report); err != nil {
		return report, err
	}

	s.log.Info("seeding completed", "report", report)
	return report, nil
}

func (s *Seeder) seedClasses(ctx context.Context, report *Report) error {
	trees, err := s.source.FetchClasses(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch classes: %w", err)
	}

	s.log.Info("fetched class trees", "count", len(trees))

	for _, tree := range trees {
		if tree.Name == "" {
			continue
		}

		// counts are only applied once the class transaction commits
		var classCounts, specCounts Counts

		err = s.db.RunInTx(ctx, func(ctx context.Context, tx database.Tx) error {
			inserted, err := tx.CreateClassIfNotExists(ctx, &database.Class{Name: tree.Name, IconURL: tree.IconURL})
			if err != nil {
				return fmt.Errorf("failed to insert class %q: %w", tree.Name, err)
			}
			classCounts.record(inserted)

			class, err := tx.GetClassByName(ctx, tree.Name)
			if err != nil {
				return err
			}

			for _, entry := range tree.Specializations {
				inserted, err = tx.CreateSpecializationIfNotExists(ctx, &database.Specialization{
					ClassID: class.ID,
					Name:    entry.Name,
					IconURL: entry.IconURL,
				})
				if err != nil {
					return fmt.Errorf("failed to insert specialization %q of %q: %w", entry.Name, tree.Name, err)
				}
				specCounts.record(inserted)

				s.log.Debug("specialization seeded", "class", tree.Name, "specialization", entry.Name, "inserted", inserted)
			}

			return nil
		})
		if err != nil {
			return err
		}

		report.Classes.Inserted += classCounts.Inserted
		report.Classes.Skipped += classCounts.Skipped
		report.Specializations.Inserted += specCounts.Inserted
		report.Specializations.Skipped += specCounts.Skipped

		s.log.Info("class seeded", "class", tree.Name, "inserted", classCounts.Inserted == 1, "specializations", len(tree.Specializations))
	}

	return nil
}

func (s *Seeder) seedStatic(ctx context.Context, report *Report) error {
	for _, name := range ServerNames {
		inserted, err := s.db.CreateServerIfNotExists(ctx, &database.Server{Name: name})
		if err != nil {
			return fmt.Errorf("failed to insert server %q: %w", name, err)
		}
		report.Servers.record(inserted)
	}

	for _, name := range database.PvPRankNames {
		rank := database.PvPRank{Name: name}
		if icon, ok := pvpRankIcons[name]; ok {
			rank.IconURL = &icon
		}

		inserted, err := s.db.CreatePvPRankIfNotExists(ctx, &rank)
		if err != nil {
			return fmt.Errorf("failed to insert pvp rank %q: %w", name, err)
		}
		report.PvPRanks.record(inserted)
	}

	s.log.Info("static reference data seeded", "servers", report.Servers, "pvpRanks", report.PvPRanks)
	return nil
}
