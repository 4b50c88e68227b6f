package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var RootCmd = &cobra.Command{
	Use:   "rarefy",
	Short: "rarefy estimates how many genes or transcripts a sequencing run would detect at lower depths.",
	Long: `rarefy subsamples per-read gene/transcript assignments to build a rarefaction
curve: the number of distinct features detected as a function of read depth,
with a 5-95% confidence band.`,
	SilenceUsage: true,
}

const envPrefix = "rarefy"

var cfgFile string

var Verbose bool
var PrintHeader bool

var MemProfileFileName string
var MemProfileFile *os.File
var CpuProfileFileName string
var CpuProfileFile *os.File

func StartProfiling() {
	if Verbose && (MemProfileFileName != "" || CpuProfileFileName != "") {
		log.Printf("Starting Profiling. CPU profile: %q Mem profile: %q", CpuProfileFileName, MemProfileFileName)
	}
	if MemProfileFileName != "" {
		var err error
		MemProfileFile, err = os.Create(MemProfileFileName)
		check(err)
	}

	if CpuProfileFileName != "" {
		var err error
		CpuProfileFile, err = os.Create(CpuProfileFileName)
		check(err)
		check(pprof.StartCPUProfile(CpuProfileFile))
	}
}

func StopProfiling() {
	if Verbose && (MemProfileFileName != "" || CpuProfileFileName != "") {
		log.Printf("Stopping Profiling.")
	}
	if MemProfileFile != nil {
		check(pprof.WriteHeapProfile(MemProfileFile))
		MemProfileFile.Close()
	}
	if CpuProfileFile != nil {
		pprof.StopCPUProfile()
		CpuProfileFile.Close()
	}
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rarefy.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "", false, "Enable verbose output.")
	RootCmd.PersistentFlags().BoolVarP(&PrintHeader, "print-header", "", false, "Include column header in output.")
	RootCmd.PersistentFlags().StringVarP(&MemProfileFileName, "memprofile", "", "", "Write a memory profile to this file.")
	RootCmd.PersistentFlags().StringVarP(&CpuProfileFileName, "cpuprofile", "", "", "Write a CPU profile to this file.")

	RootCmd.Flags().BoolP("help", "h", false, "Show this help message.")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" { // enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".rarefy") // name of config file (without extension)
		viper.AddConfigPath("$HOME")   // adding home directory as first search path
	}
	configureEnv(viper.GetViper())

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if Verbose {
			log.Printf("Using config file: %s", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		log.Fatalf("reading config file %s: %v", cfgFile, err)
	}
}

// configureEnv lets every key be set as RAREFY_<KEY>, with dashes in flag
// names read as underscores.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv() // read in environment variables that match
}

func check(e error) {
	if e != nil {
		log.Fatal(e)
	}
}
