package mesh

import "github.com/annel0/voxel-world/internal/voxel"

// Vertex - вершина меша чанка в локальных координатах чанка
type Vertex struct {
	Position [3]float32
	Normal   voxel.Axis
	// UV - размер квада в блоках, используется для повторения текстуры
	UV       [2]uint32
	Material uint32
	// Packed - та же вершина, упакованная в 32 бита для шейдера
	Packed uint32
}

// CollisionMesh - треугольный суп для физики
type CollisionMesh struct {
	Vertices  [][3]float32
	Triangles [][3]uint32
}

// ChunkMesh - результат построения меша одного чанка
type ChunkMesh struct {
	Vertices  []Vertex
	Indices   []uint32
	Collision CollisionMesh
	Quads     int
}

var quadIndices = [6]uint32{0, 1, 3, 0, 2, 1}

// Generate строит меш и коллизию чанка. Возвращает false, если чанк пуст
// или все его грани закрыты.
func Generate(c *voxel.Chunk, neighbors *voxel.NeighborSlices) (*ChunkMesh, bool) {
	quads := Quads(c, neighbors)
	if len(quads) == 0 {
		return nil, false
	}

	m := &ChunkMesh{
		Vertices: make([]Vertex, 0, len(quads)*4),
		Indices:  make([]uint32, 0, len(quads)*6),
		Quads:    len(quads),
	}
	for _, fq := range quads {
		m.addQuad(fq)
	}
	m.Collision = buildCollision(m)
	return m, true
}

func (m *ChunkMesh) addQuad(fq FaceQuad) {
	start := uint32(len(m.Vertices))
	verts := quadVertices(fq)
	m.Vertices = append(m.Vertices, verts[:]...)
	for _, i := range quadIndices {
		m.Indices = append(m.Indices, start+i)
	}
}

func buildCollision(m *ChunkMesh) CollisionMesh {
	col := CollisionMesh{
		Vertices:  make([][3]float32, len(m.Vertices)),
		Triangles: make([][3]uint32, 0, len(m.Indices)/3),
	}
	for i, v := range m.Vertices {
		col.Vertices[i] = v.Position
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		col.Triangles = append(col.Triangles, [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]})
	}
	return col
}
