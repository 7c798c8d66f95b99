// Package main is the entry point for the beatline CLI
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/james-see/beatline/pkg/api"
	"github.com/james-see/beatline/pkg/midifile"
	"github.com/james-see/beatline/pkg/playback"
	"github.com/james-see/beatline/pkg/songfile"
	"github.com/james-see/beatline/pkg/textview"
	"github.com/james-see/beatline/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	song       songOptions
	outputFile string
	serverPort int
	maxBeats   int
	interval   time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "beatline",
	Short: "Build, play and export beat-quantized compositions",
	Long: `beatline builds compositions out of notes placed on a beat grid, with
repeat flags folding sections back on themselves, and renders, plays or
exports them.

Notes are start:end:instrument:pitch:volume with a MIDI pitch. Repeats are
start:end, or start:loop:end1,end2 for a repeat with several endings.

Examples:
  beatline render --note 0:2:1:64:72 --note 2:4:1:62:72
  beatline trace --file song.txt --repeat 0:4
  beatline export --file song.yaml -o song.mid
  beatline import song.mid -o song.txt
  beatline tui --file song.txt
  beatline serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the composition as a beat grid",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Print the beats in playback order with repeats unrolled",
	Args:  cobra.NoArgs,
	RunE:  runTrace,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the composition as MIDI, YAML, JSON or text",
	Long:  `Writes the composition in the format the output extension selects. Without -o a MIDI file is written.`,
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <input.mid>",
	Short: "Convert a MIDI file to a song file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	// Song flags, shared by every command that takes notes
	for _, cmd := range []*cobra.Command{renderCmd, traceCmd, exportCmd, tuiCmd} {
		cmd.Flags().StringVarP(&song.file, "file", "f", "", "Song file to start from (.txt, .yaml, .json, .mid)")
		cmd.Flags().IntVar(&song.tempo, "tempo", 0, "Tempo in microseconds per beat")
		cmd.Flags().StringArrayVarP(&song.notes, "note", "n", nil, "Note as start:end:instrument:pitch:volume (repeatable)")
		cmd.Flags().StringArrayVarP(&song.repeats, "repeat", "r", nil, "Repeat as start:end or start:loop:end1,end2 (repeatable)")
	}

	// render command
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the grid to a file instead of stdout")

	// trace command
	traceCmd.Flags().IntVar(&maxBeats, "max-beats", playback.DefaultMaxBeats, "Stop unrolling after this many beats")

	// export command
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")

	// import command
	importCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output song file path")

	// tui command
	tuiCmd.Flags().DurationVar(&interval, "interval", tui.DefaultInterval, "Time each beat is shown during playback")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	c, err := song.composition()
	if err != nil {
		return err
	}
	grid := textview.Render(c)
	if outputFile == "" {
		fmt.Print(grid)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(grid), 0644); err != nil {
		return err
	}
	fmt.Printf("Rendered %d beats -> %s\n", textview.Length(c), outputFile)
	return nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	c, err := song.composition()
	if err != nil {
		return err
	}
	return writeTrace(cmd.OutOrStdout(), c, maxBeats)
}

func runExport(cmd *cobra.Command, args []string) error {
	c, err := song.composition()
	if err != nil {
		return err
	}
	output := outputFor(outputFile, song.file, ".mid")
	if output == song.file {
		return fmt.Errorf("refusing to overwrite %s, pass -o", song.file)
	}
	if err := songfile.Save(output, c); err != nil {
		return err
	}
	fmt.Printf("Exported %d notes -> %s\n", len(c.NoteList()), output)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := outputFor(outputFile, input, ".txt")

	c, err := midifile.NewImporter().ReadFile(input)
	if err != nil {
		return err
	}
	if err := songfile.Save(output, c); err != nil {
		return err
	}

	fmt.Printf("Imported %s -> %s (%d notes, %d tracks)\n", input, output, len(c.NoteList()), len(c.Tracks()))
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	c, err := song.composition()
	if err != nil {
		return err
	}
	return tui.Run(c, song.file, interval)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
