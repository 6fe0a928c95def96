package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fibertree/fibertree/internal/config"
	"github.com/fibertree/fibertree/internal/fiber"
	"github.com/fibertree/fibertree/internal/storage"
	"github.com/fibertree/fibertree/internal/tree"
	"github.com/fibertree/fibertree/internal/viz"
)

// openStore opens the configured SQLite backend wrapped in the LRU cache.
// FIBERTREE_DB overrides the configured path.
func openStore(cfg config.Config) (storage.Backend, string, error) {
	dbPath := os.Getenv("FIBERTREE_DB")
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := storage.OpenSQLite(dbPath, cfg.Database.Table)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}

	cached, err := storage.NewCache(db, cfg.Cache.Size)
	if err != nil {
		db.Close()
		return nil, "", fmt.Errorf("create cache: %w", err)
	}
	return cached, dbPath, nil
}

func openTree() (*tree.Tree, storage.Backend, error) {
	store, _, err := openStore(config.Default())
	if err != nil {
		return nil, nil, err
	}
	tr, err := tree.New(store)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open tree: %w", err)
	}
	return tr, store, nil
}

// parseMoves splits a comma-separated path into Moves. Each segment that
// parses as a JSON value keeps that type; anything else is a plain string.
func parseMoves(raw string) []fiber.Move {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	moves := make([]fiber.Move, 0, len(parts))
	for _, p := range parts {
		moves = append(moves, fiber.MoveFromText(strings.TrimSpace(p)))
	}
	return moves
}

// --- stats command ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show tree statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	tr, store, err := openTree()
	if err != nil {
		return err
	}
	defer store.Close()

	div, err := tr.PathDiversity()
	if err != nil {
		return fmt.Errorf("analyze tree: %w", err)
	}

	root, err := tr.Root()
	if err != nil {
		return fmt.Errorf("load root: %w", err)
	}

	fmt.Printf("Fibers:           %d\n", div.TotalFibers)
	fmt.Printf("Max depth:        %d\n", div.MaxDepth)
	fmt.Printf("Leaf nodes:       %d\n", div.LeafNodes)
	fmt.Printf("Avg branching:    %.2f\n", div.AvgBranchingFactor)
	fmt.Printf("Total visits:     %d\n", root.Stats.Visits)
	fmt.Printf("Win rate at root: %.3f\n", root.Stats.WinRate())

	if len(div.DepthDistribution) > 0 {
		depths := make([]int, 0, len(div.DepthDistribution))
		for d := range div.DepthDistribution {
			depths = append(depths, d)
		}
		sort.Ints(depths)
		fmt.Println("Depth distribution:")
		for _, d := range depths {
			fmt.Printf("  %2d: %d\n", d, div.DepthDistribution[d])
		}
	}
	return nil
}

// --- best command ---

var (
	bestPath      string
	bestTopN      int
	bestMinVisits uint64
)

var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Show the best continuations from a position",
	Long:  "Rank the children of the position reached by --path by win rate. An empty path ranks the root's children.",
	RunE:  runBest,
}

func runBest(cmd *cobra.Command, args []string) error {
	tr, store, err := openTree()
	if err != nil {
		return err
	}
	defer store.Close()

	conts, err := tr.BestContinuation(parseMoves(bestPath), bestTopN, bestMinVisits)
	if err != nil {
		return fmt.Errorf("rank continuations: %w", err)
	}
	if len(conts) == 0 {
		fmt.Println("No continuations found.")
		return nil
	}

	for i, c := range conts {
		fmt.Printf("%d. %s  win rate %.3f  (%d visits)\n", i+1, c.Move.String(), c.WinRate, c.Visits)
	}
	return nil
}

// --- heatmap command ---

var heatmapSize int

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Print a visit heatmap over a square board",
	RunE:  runHeatmap,
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	if heatmapSize <= 0 {
		return fmt.Errorf("board size must be positive, got %d", heatmapSize)
	}
	tr, store, err := openTree()
	if err != nil {
		return err
	}
	defer store.Close()

	grid, err := tr.MoveHeatmap(heatmapSize)
	if err != nil {
		return fmt.Errorf("build heatmap: %w", err)
	}

	for _, row := range grid {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%6d", v)
		}
		fmt.Println(strings.Join(cells, " "))
	}
	return nil
}

// --- export / import commands ---

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the tree to a JSON document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	tr, store, err := openTree()
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		if err := tr.Export(os.Stdout); err != nil {
			return fmt.Errorf("export tree: %w", err)
		}
		return nil
	}

	if err := tr.Save(args[0]); err != nil {
		return fmt.Errorf("export tree: %w", err)
	}
	log.Info().Msgf("exported %d fibers to %s", mustSize(tr), args[0])
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON document, replacing the current tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	store, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tr, err := tree.Load(args[0], store)
	if err != nil {
		return fmt.Errorf("import tree: %w", err)
	}
	log.Info().Msgf("imported %d fibers from %s", mustSize(tr), args[0])
	return nil
}

func mustSize(tr *tree.Tree) int {
	n, err := tr.Size()
	if err != nil {
		return 0
	}
	return n
}

// --- prune command ---

var (
	pruneMinVisits uint64
	pruneMaxDepth  int
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove low-value branches from the tree",
	RunE:  runPrune,
}

func runPrune(cmd *cobra.Command, args []string) error {
	tr, store, err := openTree()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := tr.Prune(tree.PruneOptions{
		MinVisits: pruneMinVisits,
		MaxDepth:  pruneMaxDepth,
	})
	if err != nil {
		return fmt.Errorf("prune tree: %w", err)
	}
	log.Info().Msgf("pruned %d fibers (min visits %d, max depth %d)", removed, pruneMinVisits, pruneMaxDepth)
	return nil
}

// --- merge command ---

var mergeStrategy string

var mergeCmd = &cobra.Command{
	Use:   "merge <file>",
	Short: "Merge an exported tree into the current one",
	Args:  cobra.ExactArgs(1),
	RunE:  runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	tr, store, err := openTree()
	if err != nil {
		return err
	}
	defer store.Close()

	srcStore := storage.NewMemory()
	src, err := tree.Load(args[0], srcStore)
	if err != nil {
		return fmt.Errorf("load source tree: %w", err)
	}

	merged, err := tr.Merge(src, tree.MergeStrategy(mergeStrategy))
	if err != nil {
		return fmt.Errorf("merge trees: %w", err)
	}
	log.Info().Msgf("merged %d fibers from %s (strategy %s)", merged, args[0], mergeStrategy)
	return nil
}

// --- render command ---

var (
	renderFormat   string
	renderMaxDepth int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the tree as text or Graphviz dot",
	RunE:  runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	tr, store, err := openTree()
	if err != nil {
		return err
	}
	defer store.Close()

	var out string
	switch renderFormat {
	case "text":
		out, err = viz.Text(tr, renderMaxDepth)
	case "dot":
		out, err = viz.Dot(tr, renderMaxDepth)
	default:
		return fmt.Errorf("unknown format %q (want text or dot)", renderFormat)
	}
	if err != nil {
		return fmt.Errorf("render tree: %w", err)
	}
	fmt.Print(out)
	return nil
}

func init() {
	bestCmd.Flags().StringVar(&bestPath, "path", "", "comma-separated move path to the position")
	bestCmd.Flags().IntVar(&bestTopN, "top", 5, "number of continuations to show")
	bestCmd.Flags().Uint64Var(&bestMinVisits, "min-visits", 0, "ignore continuations with fewer visits")

	heatmapCmd.Flags().IntVar(&heatmapSize, "size", 3, "board side length")

	pruneCmd.Flags().Uint64Var(&pruneMinVisits, "min-visits", 1, "remove branches with fewer visits")
	pruneCmd.Flags().IntVar(&pruneMaxDepth, "max-depth", 0, "remove branches deeper than this (0 disables)")

	mergeCmd.Flags().StringVar(&mergeStrategy, "strategy", string(tree.StatsSum), "stats_sum, keep_max, or keep_current")

	renderCmd.Flags().StringVar(&renderFormat, "format", "text", "text or dot")
	renderCmd.Flags().IntVar(&renderMaxDepth, "max-depth", 0, "limit rendering depth (0 means unlimited)")
}
