package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/region"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/voxel"
)

func main() {
	var (
		root        = flag.String("root", storage.DefaultRoot(), "Каталог данных")
		worldName   = flag.String("world", "world", "Имя мира")
		backendKind = flag.String("backend", "file", "Хранилище: file, badger")
		command     = flag.String("cmd", "ls", "Команда: ls, info, mesh")
		regionArg   = flag.String("region", "0,0,0", "Координаты региона x,y,z (info)")
		chunkArg    = flag.String("chunk", "0,0,0", "Координаты чанка x,y,z (mesh)")
		solid       = flag.Bool("solid-missing", false, "Считать отсутствующих соседей сплошными (mesh)")
	)
	flag.Parse()

	backend, err := openBackend(*backendKind, *root, *worldName)
	if err != nil {
		log.Fatalf("❌ Не удалось открыть хранилище: %v", err)
	}
	defer backend.Close()

	codec, err := region.NewCodec(region.CompressionGzip)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer codec.Close()

	ctx := context.Background()

	switch *command {
	case "ls":
		err = listRegions(ctx, backend, *worldName)
	case "info":
		var pos [3]int
		if pos, err = parseTriple(*regionArg); err == nil {
			err = regionInfo(ctx, backend, codec, *worldName, voxel.RegionPos{X: pos[0], Y: pos[1], Z: pos[2]})
		}
	case "mesh":
		var pos [3]int
		if pos, err = parseTriple(*chunkArg); err == nil {
			store := region.NewStore(*worldName, backend, codec)
			err = meshChunk(ctx, store, voxel.NewChunkPos(pos[0], pos[1], pos[2]), *solid)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: ls, info, mesh")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func openBackend(kind, root, worldName string) (storage.Backend, error) {
	switch kind {
	case "file":
		return storage.NewFileBackend(root)
	case "badger":
		return storage.NewBadgerBackend(filepath.Join(storage.SaveDir(root, worldName), "regions.badger"))
	default:
		return nil, fmt.Errorf("неизвестное хранилище %q", kind)
	}
}

func parseTriple(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("ожидалось x,y,z, получено %q", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("неверная координата %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

// listRegions выводит сохранённые регионы мира
func listRegions(ctx context.Context, backend storage.Backend, worldName string) error {
	regions, err := backend.List(ctx, worldName)
	if err != nil {
		return err
	}
	fmt.Printf("🗺️  World %q: %d regions\n", worldName, len(regions))
	for _, pos := range regions {
		data, err := backend.Load(ctx, worldName, pos)
		if err != nil {
			fmt.Printf("  %-16s ❌ %v\n", pos, err)
			continue
		}
		fmt.Printf("  %-16s %8d bytes\n", pos, len(data))
	}
	return nil
}

// regionInfo декодирует регион и печатает присутствующие чанки с гистограммой блоков
func regionInfo(ctx context.Context, backend storage.Backend, codec *region.Codec, worldName string, pos voxel.RegionPos) error {
	data, err := backend.Load(ctx, worldName, pos)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("регион %s не сохранён", pos)
	}
	if err != nil {
		return err
	}

	r, err := codec.Decode(pos, data)
	if err != nil {
		fmt.Printf("⚠️ Первые байты блоба:\n%s", logging.HexDump(data))
		return err
	}

	fmt.Printf("📦 Region %s: %d bytes, %d/%d chunks present\n", pos, len(data), r.Len(), voxel.RegionCube)

	total := make(map[voxel.Voxel]int)
	r.Each(func(chunkPos voxel.ChunkPos, c *voxel.Container) {
		counts := make(map[voxel.Voxel]int)
		for _, v := range c {
			counts[v]++
			total[v]++
		}
		fmt.Printf("  chunk %s: %s\n", chunkPos, formatHistogram(counts))
	})
	fmt.Printf("  total: %s\n", formatHistogram(total))
	return nil
}

func formatHistogram(counts map[voxel.Voxel]int) string {
	voxels := make([]voxel.Voxel, 0, len(counts))
	for v := range counts {
		voxels = append(voxels, v)
	}
	sort.Slice(voxels, func(i, j int) bool { return voxels[i] < voxels[j] })

	parts := make([]string, 0, len(voxels))
	for _, v := range voxels {
		parts = append(parts, fmt.Sprintf("%s=%d", v, counts[v]))
	}
	return strings.Join(parts, " ")
}

// meshChunk строит меш одного сохранённого чанка и печатает число квадов.
// Соседи берутся из хранилища; отсутствующие считаются воздухом или сплошными.
func meshChunk(ctx context.Context, store *region.Store, pos voxel.ChunkPos, solidMissing bool) error {
	data, found, err := store.CheckForChunk(ctx, pos)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("чанк %s не сохранён", pos)
	}
	chunk := voxel.FromContainer(data)

	var neighbors voxel.NeighborSlices
	missing := 0
	for _, axis := range voxel.Axes {
		c, ok, err := store.CheckForChunk(ctx, pos.Neighbor(axis))
		if err != nil {
			return err
		}
		switch {
		case ok:
			neighbors.Set(axis, voxel.FromContainer(c).EdgeBits[axis.Negate()])
		case solidMissing:
			missing++
			neighbors.Set(axis, voxel.FullSlice())
		default:
			missing++
		}
	}

	quads := mesh.Quads(chunk, &neighbors)
	perDir := make(map[string]int)
	for _, fq := range quads {
		perDir[fq.Dir.Normal.String()]++
	}

	fmt.Printf("🧊 Chunk %s: %d quads (missing neighbors: %d)\n", pos, len(quads), missing)
	for _, axis := range voxel.Axes {
		fmt.Printf("  %-4s %d\n", axis, perDir[axis.String()])
	}
	if m, ok := mesh.Generate(chunk, &neighbors); ok {
		fmt.Printf("  vertices=%d indices=%d triangles=%d\n", len(m.Vertices), len(m.Indices), len(m.Collision.Triangles))
	}
	return nil
}
