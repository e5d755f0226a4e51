package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	hexOffset int64
	hexLength int64
)

var hexCmd = &cobra.Command{
	Use:   "hex <file.fdb>",
	Short: "Dump raw bytes from a graph file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}
		size := info.Size()
		if hexOffset < 0 || hexOffset >= size {
			return fmt.Errorf("offset %d out of range (file size %d)", hexOffset, size)
		}
		if hexLength < 1 {
			return fmt.Errorf("invalid length %d", hexLength)
		}
		if remaining := size - hexOffset; hexLength > remaining {
			hexLength = remaining
		}

		buf := make([]byte, hexLength)
		n, err := f.ReadAt(buf, hexOffset)
		if err != nil {
			return fmt.Errorf("read %d of %d bytes: %w", n, hexLength, err)
		}

		for i := 0; i < n; i += 16 {
			end := i + 16
			if end > n {
				end = n
			}
			chunk := buf[i:end]

			fmt.Printf("%08x: ", hexOffset+int64(i))
			for j := 0; j < 16; j++ {
				if j < len(chunk) {
					fmt.Printf("%02x ", chunk[j])
				} else {
					fmt.Print("   ")
				}
				if j == 7 {
					fmt.Print(" ")
				}
			}
			fmt.Print(" |")
			for _, b := range chunk {
				if b >= 32 && b <= 126 {
					fmt.Printf("%c", b)
				} else {
					fmt.Print(".")
				}
			}
			fmt.Println("|")
		}
		return nil
	},
}

func init() {
	hexCmd.Flags().Int64Var(&hexOffset, "offset", 0, "offset to start dumping from")
	hexCmd.Flags().Int64Var(&hexLength, "length", 128, "number of bytes to dump")
	rootCmd.AddCommand(hexCmd)
}
