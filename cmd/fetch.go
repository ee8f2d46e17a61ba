package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbansignals/floodwatch/internal/fetcher"
	"github.com/urbansignals/floodwatch/internal/ingest"
	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/pkg/socrata"
)

var (
	fetchYear             int
	fetchSample           bool
	fetchSampleComplaints int
	fetchSampleTracts     int
	fetchForce            bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download 311 complaints and census tract data",
	Long:  "Downloads the year's 311 service requests from NYC Open Data and census tract boundaries from TIGER, normalizing both into the data directory. With --sample, generates synthetic data instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		year := fetchYear
		if year == 0 {
			year = cfg.Filter.Year
		}
		if err := os.MkdirAll(cfg.Pipeline.DataDir, 0o755); err != nil {
			return eris.Wrap(err, "create data dir")
		}

		if fetchSample {
			return fetchSampleData(year)
		}

		if err := fetchComplaints(ctx, year); err != nil {
			return err
		}
		tracts, err := fetchTracts(ctx)
		if err != nil {
			return err
		}
		if err := applyDemographics(ctx, tracts); err != nil {
			return err
		}
		return writeTracts(tracts)
	},
}

// fetchSampleData writes synthetic complaints and tracts, for development
// and demos without network access.
func fetchSampleData(year int) error {
	complaints := ingest.SampleComplaints(fetchSampleComplaints, year)
	tracts := ingest.SampleTracts(fetchSampleTracts)

	f, err := os.Create(complaintsPath(year))
	if err != nil {
		return eris.Wrap(err, "create complaints file")
	}
	defer f.Close() //nolint:errcheck
	if err := ingest.WriteComplaintsCSV(f, complaints); err != nil {
		return err
	}

	zap.L().Info("sample data generated",
		zap.Int("complaints", len(complaints)),
		zap.Int("tracts", len(tracts)),
		zap.String("complaints_file", complaintsPath(year)))
	return writeTracts(tracts)
}

func fetchComplaints(ctx context.Context, year int) error {
	path := complaintsPath(year)
	if _, err := os.Stat(path); err == nil && !fetchForce && !cfg.Fetch.Force {
		zap.L().Info("complaints file exists, skipping download", zap.String("path", path))
		return nil
	}

	client := socrata.New(cfg.Socrata.BaseURL, socrata.WithAppToken(cfg.Socrata.AppToken))
	where := socrata.YearWhere(year)

	total, err := client.Count(ctx, cfg.Socrata.DatasetID, where)
	if err != nil {
		return eris.Wrap(err, "count complaints")
	}
	zap.L().Info("downloading complaints",
		zap.Int("year", year),
		zap.Int64("total", total))

	pageSize := cfg.Socrata.PageSize
	if pageSize <= 0 {
		pageSize = 50000
	}

	var all []model.Complaint
	var stats ingest.ComplaintStats
	start := time.Now()
	for offset := 0; int64(offset) < total; offset += pageSize {
		body, err := client.ExportCSV(ctx, cfg.Socrata.DatasetID, where, pageSize, offset)
		if err != nil {
			return eris.Wrap(err, "export complaints page")
		}
		page, pageStats, err := ingest.ReadComplaints(ctx, body)
		body.Close() //nolint:errcheck
		if err != nil {
			return eris.Wrap(err, "parse complaints page")
		}
		all = append(all, page...)
		stats.Rows += pageStats.Rows
		stats.NoLocation += pageStats.NoLocation
		stats.BadDate += pageStats.BadDate
		stats.BadKey += pageStats.BadKey
		stats.BadLocation += pageStats.BadLocation

		zap.L().Debug("complaints page",
			zap.Int("offset", offset),
			zap.Int("rows", len(page)))
		if pageStats.Rows == 0 {
			break
		}
	}
	metrics.FetchDuration.WithLabelValues("socrata").Observe(time.Since(start).Seconds())
	metrics.RowsSkipped.WithLabelValues("no_location").Add(float64(stats.NoLocation))
	metrics.RowsSkipped.WithLabelValues("bad_date").Add(float64(stats.BadDate))
	metrics.RowsSkipped.WithLabelValues("bad_key").Add(float64(stats.BadKey))
	metrics.RowsSkipped.WithLabelValues("bad_location").Add(float64(stats.BadLocation))

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create complaints file")
	}
	defer f.Close() //nolint:errcheck
	if err := ingest.WriteComplaintsCSV(f, all); err != nil {
		return err
	}

	zap.L().Info("complaints downloaded",
		zap.Int("kept", len(all)),
		zap.Int64("rows", stats.Rows),
		zap.Int64("no_location", stats.NoLocation),
		zap.Int64("bad_date", stats.BadDate),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("path", path))
	return nil
}

// fetchTracts downloads the TIGER tract shapefile and loads its polygons.
// The Census Bureau serves TIGER over both HTTPS and FTP.
func fetchTracts(ctx context.Context) ([]*model.Tract, error) {
	tigerDir := filepath.Join(cfg.Pipeline.DataDir, "tiger")
	if err := os.MkdirAll(tigerDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "create tiger dir")
	}
	zipPath := filepath.Join(tigerDir, filepath.Base(cfg.Census.TractsURL))

	force := fetchForce || cfg.Fetch.Force
	start := time.Now()
	var (
		downloaded bool
		err        error
	)
	if strings.HasPrefix(cfg.Census.TractsURL, "ftp://") {
		ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})
		downloaded, err = ftpFetcher.DownloadCached(ctx, cfg.Census.TractsURL, zipPath, force)
	} else {
		httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
		})
		downloaded, err = httpFetcher.DownloadCached(ctx, cfg.Census.TractsURL, zipPath, force)
	}
	if err != nil {
		return nil, eris.Wrap(err, "download tracts")
	}
	metrics.FetchDuration.WithLabelValues("census").Observe(time.Since(start).Seconds())
	if downloaded {
		if _, err := fetcher.ExtractZIP(zipPath, tigerDir); err != nil {
			return nil, eris.Wrap(err, "extract tracts")
		}
	}

	shpPath, err := fetcher.FindByExt(tigerDir, ".shp")
	if err != nil {
		// Cached zip may never have been extracted.
		if _, zerr := fetcher.ExtractZIP(zipPath, tigerDir); zerr != nil {
			return nil, eris.Wrap(zerr, "extract tracts")
		}
		shpPath, err = fetcher.FindByExt(tigerDir, ".shp")
		if err != nil {
			return nil, eris.Wrap(err, "locate shapefile")
		}
	}

	tracts, err := ingest.LoadTractsShapefile(shpPath)
	if err != nil {
		return nil, err
	}
	zap.L().Info("tracts loaded", zap.Int("count", len(tracts)), zap.String("shapefile", shpPath))
	return tracts, nil
}

func applyDemographics(ctx context.Context, tracts []*model.Tract) error {
	if cfg.Census.DemographicsPath == "" {
		zap.L().Warn("no demographics file configured, tract rates will be undefined")
		return nil
	}
	rows, err := ingest.LoadDemographics(ctx, cfg.Census.DemographicsPath)
	if err != nil {
		return err
	}
	matched := ingest.ApplyDemographics(tracts, rows)
	zap.L().Info("demographics applied",
		zap.Int("rows", len(rows)),
		zap.Int("matched", matched))
	return nil
}

func writeTracts(tracts []*model.Tract) error {
	f, err := os.Create(tractsPath())
	if err != nil {
		return eris.Wrap(err, "create tracts file")
	}
	defer f.Close() //nolint:errcheck
	if err := ingest.WriteTractsGeoJSON(f, tracts); err != nil {
		return err
	}
	zap.L().Info("tracts written", zap.Int("count", len(tracts)), zap.String("path", tractsPath()))
	return nil
}

func init() {
	fetchCmd.Flags().IntVar(&fetchYear, "year", 0, "complaint year (default from config)")
	fetchCmd.Flags().BoolVar(&fetchSample, "sample", false, "generate synthetic data instead of downloading")
	fetchCmd.Flags().IntVar(&fetchSampleComplaints, "sample-complaints", 10000, "synthetic complaint count with --sample")
	fetchCmd.Flags().IntVar(&fetchSampleTracts, "sample-tracts", 200, "synthetic tract count with --sample")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-download even if files exist")
	rootCmd.AddCommand(fetchCmd)
}
