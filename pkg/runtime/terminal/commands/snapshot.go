package commands

import (
	"fmt"

	"github.com/de-tools/book-atlas/pkg/store/duckdb"
	"github.com/de-tools/book-atlas/pkg/store/duckdb/snapshot"
	"github.com/spf13/cobra"
)

type SnapshotCmd struct {
	session *Session
	dbPath  string
	name    string
}

func NewSnapshotCmd(session *Session) *cobra.Command {
	sc := &SnapshotCmd{session: session}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Freeze the filtered view into a DuckDB table",
		Args:  cobra.NoArgs,
		RunE:  sc.save,
	}

	cmd.PersistentFlags().StringVar(&sc.dbPath, "db", "", "DuckDB file (defaults to snapshot_db from the config)")
	cmd.Flags().StringVar(&sc.name, "name", "", "Snapshot name (defaults to the variant name)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE:  sc.list,
	})

	return cmd
}

func (sc *SnapshotCmd) openStore() (snapshot.Store, func() error, error) {
	path := sc.dbPath
	if path == "" {
		cfg, err := sc.session.Config()
		if err != nil {
			return nil, nil, err
		}
		path = cfg.SnapshotDB
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: path})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	store, err := snapshot.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db.Close, nil
}

func (sc *SnapshotCmd) save(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	d, err := sc.session.Open(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	store, closeDB, err := sc.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	v := d.Variant()
	name := sc.name
	if name == "" {
		name = v.Name
	}

	info, err := store.Save(ctx, snapshot.Snapshot{
		Name:    name,
		Variant: v.Name,
		Filters: d.Filters(),
		Dataset: d.Dataset(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s saved to table %s (%d records)\n", info.Name, info.Table, info.RecordCount)
	return nil
}

func (sc *SnapshotCmd) list(cmd *cobra.Command, _ []string) error {
	store, closeDB, err := sc.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	infos, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d\t%s\n",
			info.Name, info.Variant, info.Table, info.RecordCount, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
