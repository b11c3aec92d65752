package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nanofab/descript/pkg/cache"
	"github.com/nanofab/descript/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the slicer artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheInfoCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the local artifact cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.configValue()
			if err != nil {
				return err
			}
			dir, err := cfg.CacheDir()
			if err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			usage, err := fc.Usage()
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", usage.Entries)
			printDetail("Directory: %s", dir)
			if cfg.Cache.Backend == config.BackendRedis {
				printWarning("Redis entries at %s are not cleared", cfg.Cache.Redis.Addr)
			}
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache backend and usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.configValue()
			if err != nil {
				return err
			}

			printKeyValue("Backend", cfg.Cache.Backend)
			if cfg.Cache.Namespace != "" {
				printKeyValue("Namespace", cfg.Cache.Namespace)
			}

			switch cfg.Cache.Backend {
			case config.BackendRedis:
				printKeyValue("Address", cfg.Cache.Redis.Addr)
				printKeyValue("Database", fmt.Sprintf("%d", cfg.Cache.Redis.DB))
			case config.BackendNone:
			default:
				dir, err := cfg.CacheDir()
				if err != nil {
					return err
				}
				printKeyValue("Directory", dir)
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					printKeyValue("Entries", "0")
					return nil
				}
				fc, err := cache.NewFileCache(dir)
				if err != nil {
					return err
				}
				usage, err := fc.Usage()
				if err != nil {
					return err
				}
				printKeyValue("Entries", fmt.Sprintf("%d", usage.Entries))
				printKeyValue("Size", humanBytes(usage.Bytes))
			}
			return nil
		},
	}
}

// humanBytes renders a byte count with a binary-scaled unit.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
