// Command vfsctl formats, mounts, and inspects FAT volumes through the
// vfs package, entirely from the command line.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/go-vfskit/vfskit/blockdev"
	"github.com/go-vfskit/vfskit/disks"
	"github.com/go-vfskit/vfskit/fat"
	"github.com/go-vfskit/vfskit/vfs"
)

func main() {
	app := cli.App{
		Name:  "vfsctl",
		Usage: "Format and inspect FAT disk images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create a new FAT image from a predefined geometry",
				ArgsUsage: "IMAGE_PATH GEOMETRY_SLUG",
				Action:    formatImage,
			},
			{
				Name:      "ls",
				Usage:     "List a directory inside an image",
				ArgsUsage: "IMAGE_PATH [PATH]",
				Action:    listDirectory,
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents",
				ArgsUsage: "IMAGE_PATH PATH",
				Action:    catFile,
			},
			{
				Name:      "mkdir",
				Usage:     "Create a directory inside an image",
				ArgsUsage: "IMAGE_PATH PATH",
				Action:    makeDirectory,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("vfsctl: %s", err.Error())
	}
}

func formatImage(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: vfsctl format IMAGE_PATH GEOMETRY_SLUG")
	}
	imagePath := c.Args().Get(0)
	slug := c.Args().Get(1)

	geometry, err := disks.GetPredefinedDiskGeometry(slug)
	if err != nil {
		return err
	}

	dev, err := blockdev.CreateFileDevice(imagePath, geometry.TotalSectors, geometry.BytesPerSector)
	if err != nil {
		return err
	}
	defer dev.Close()

	if errno := fat.Format(dev, geometry.FormatOptions()); errno != nil {
		return errno
	}

	fmt.Printf("formatted %s as %q (%d bytes)\n", imagePath, slug, geometry.TotalSizeBytes())
	return nil
}

func mountImage(imagePath string, sectorSize int) (*vfs.VFS, int, error) {
	dev, err := blockdev.OpenFileDevice(imagePath, sectorSize)
	if err != nil {
		return nil, -1, err
	}

	v := vfs.New(64)
	if errno := v.RegisterFileSystem(fat.FileSystemType); errno != nil {
		return nil, -1, errno
	}
	if errno := v.Mount("", "/", "fat", 0, blockdev.Device(dev)); errno != nil {
		return nil, -1, errno
	}
	return v, 0, nil
}

func listDirectory(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("usage: vfsctl ls IMAGE_PATH [PATH]")
	}
	path := "/"
	if c.Args().Len() > 1 {
		path = c.Args().Get(1)
	}

	v, _, err := mountImage(c.Args().Get(0), 512)
	if err != nil {
		return err
	}

	fd, errno := v.Opendir(path)
	if errno != nil {
		return errno
	}
	defer v.Closedir(fd)

	for {
		entry, errno := v.Readdir(fd)
		if errno != nil {
			break
		}
		fmt.Println(entry.Name)
	}
	return nil
}

func catFile(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: vfsctl cat IMAGE_PATH PATH")
	}

	v, _, err := mountImage(c.Args().Get(0), 512)
	if err != nil {
		return err
	}

	fd, errno := v.Open(c.Args().Get(1), vfs.O_RDONLY, 0)
	if errno != nil {
		return errno
	}
	defer v.Close(fd)

	buf := make([]byte, 4096)
	for {
		n, errno := v.Read(fd, buf)
		if n > 0 {
			os.Stdout.Write(buf[:n])
		}
		if errno != nil || n == 0 {
			break
		}
	}
	return nil
}

func makeDirectory(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: vfsctl mkdir IMAGE_PATH PATH")
	}

	v, _, err := mountImage(c.Args().Get(0), 512)
	if err != nil {
		return err
	}

	if errno := v.Mkdir(c.Args().Get(1), vfs.ModePermMask); errno != nil {
		return errno
	}
	return nil
}
