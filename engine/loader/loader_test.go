package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-wind/engine/game_object"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
)

// triangleBuffer packs one triangle: positions, normals, uvs and uint16 indices padded to 4.
func triangleBuffer() []byte {
	var buf bytes.Buffer
	positions := [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	normals := [3][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	uvs := [3][2]float32{{0, 1}, {1, 1}, {0, 0}}
	_ = binary.Write(&buf, binary.LittleEndian, positions)
	_ = binary.Write(&buf, binary.LittleEndian, normals)
	_ = binary.Write(&buf, binary.LittleEndian, uvs)
	_ = binary.Write(&buf, binary.LittleEndian, [4]uint16{0, 1, 2, 0})
	return buf.Bytes()
}

// triangleDoc is a document drawing triangleBuffer with one material.
func triangleDoc(bufferURI string) map[string]any {
	return map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes": []any{map[string]any{
			"name":        "leaf",
			"mesh":        0,
			"translation": []float32{1, 0, 0},
			"scale":       []float32{2, 2, 2},
		}},
		"meshes": []any{map[string]any{"primitives": []any{map[string]any{
			"attributes": map[string]int{"POSITION": 0, "NORMAL": 1, "TEXCOORD_0": 2},
			"indices":    3,
			"material":   0,
		}}}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			map[string]any{"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC3"},
			map[string]any{"bufferView": 2, "componentType": 5126, "count": 3, "type": "VEC2"},
			map[string]any{"bufferView": 3, "componentType": 5123, "count": 3, "type": "SCALAR"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			map[string]any{"buffer": 0, "byteOffset": 36, "byteLength": 36},
			map[string]any{"buffer": 0, "byteOffset": 72, "byteLength": 24},
			map[string]any{"buffer": 0, "byteOffset": 96, "byteLength": 6},
		},
		"buffers": []any{map[string]any{"uri": bufferURI, "byteLength": 104}},
		"materials": []any{map[string]any{
			"name": "grass",
			"pbrMetallicRoughness": map[string]any{
				"baseColorFactor":  []float32{0.2, 0.6, 0.1, 1},
				"roughnessFactor":  0.7,
				"metallicFactor":   0,
				"baseColorTexture": map[string]int{"index": 0},
			},
			"alphaMode": "BLEND",
		}},
		"textures": []any{map[string]int{"source": 0}},
		"images":   []any{map[string]string{"uri": "textures/grass_albedo.png"}},
	}
}

func dataURI(data []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// glb wraps a JSON document and a binary chunk in a GLB container.
func glb(jsonData, bin []byte) []byte {
	pad := func(b []byte, c byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, c)
		}
		return b
	}
	jsonData = pad(append([]byte{}, jsonData...), ' ')
	bin = pad(append([]byte{}, bin...), 0)

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + len(bin)
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)})
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonData)), ChunkType: gltfGLBChunkJSON})
	out.Write(jsonData)
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
	out.Write(bin)
	return out.Bytes()
}

func TestLoad_GLTFWithDataURI(t *testing.T) {
	fsys := fstest.MapFS{"models/leaf.gltf": {Data: mustJSON(t, triangleDoc(dataURI(triangleBuffer())))}}
	l := NewLoader(fsys)

	meshes, err := l.Load("models/leaf.gltf")
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	m := meshes[0]
	assert.Equal(t, "leaf", m.Name)
	assert.Equal(t, []uint32{0, 1, 2}, m.Model.Indices())
	v := m.Model.Vertices()
	require.Len(t, v, 3)
	assert.Equal(t, [3]float32{1, 0, 0}, v[0].Position)
	assert.Equal(t, [3]float32{3, 0, 0}, v[1].Position)
	assert.Equal(t, [3]float32{1, 2, 0}, v[2].Position)
	assert.InDelta(t, 1, v[0].Normal[2], 1e-6)
	assert.Equal(t, [2]float32{0, 0}, v[2].TexCoord)

	mat := m.Material
	assert.Equal(t, "grass", mat.Name())
	assert.Equal(t, [4]float32{0.2, 0.6, 0.1, 1}, mat.BaseColor())
	assert.InDelta(t, 0.7, mat.Roughness(), 1e-6)
	assert.Zero(t, mat.Metallic())
	assert.Equal(t, "grass_albedo.png", mat.DiffuseTexture())
	assert.Empty(t, mat.NormalTexture())
	assert.True(t, mat.Transparent())

	again, err := l.Load("models/leaf.gltf")
	require.NoError(t, err)
	assert.Same(t, meshes[0].Model, again[0].Model, "second load is served from the cache")

	l.Clear()
	assert.Nil(t, l.Get("models/leaf.gltf"))
}

func TestLoad_ExternalBufferRelativeToFile(t *testing.T) {
	fsys := fstest.MapFS{
		"models/leaf.gltf": {Data: mustJSON(t, triangleDoc("leaf.bin"))},
		"models/leaf.bin":  {Data: triangleBuffer()},
	}
	meshes, err := NewLoader(fsys).Load("models/leaf.gltf")
	require.NoError(t, err)
	assert.Len(t, meshes, 1)
}

func TestLoad_GLBWithoutNodes(t *testing.T) {
	doc := triangleDoc("")
	delete(doc, "scene")
	delete(doc, "scenes")
	delete(doc, "nodes")
	doc["buffers"] = []any{map[string]any{"byteLength": 104}}
	prim := doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)
	delete(prim, "material")

	fsys := fstest.MapFS{"tuft.glb": {Data: glb(mustJSON(t, doc), triangleBuffer())}}
	l := NewLoader(fsys, WithMaterialOptions(material.WithRoughness(0.9)))

	meshes, err := l.Load("tuft.glb")
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	assert.Equal(t, "tuft/mesh0", meshes[0].Name)
	assert.Equal(t, [3]float32{1, 0, 0}, meshes[0].Model.Vertices()[1].Position)
	assert.Equal(t, "tuft/default", meshes[0].Material.Name())
	assert.InDelta(t, 0.9, meshes[0].Material.Roughness(), 1e-6)
}

func TestLoadReader_GLB(t *testing.T) {
	doc := triangleDoc("")
	doc["buffers"] = []any{map[string]any{"byteLength": 104}}
	data := glb(mustJSON(t, doc), triangleBuffer())

	l := NewLoader(fstest.MapFS{})
	meshes, err := l.LoadReader("stream", bytes.NewReader(data), true)
	require.NoError(t, err)
	assert.Len(t, meshes, 1)
	assert.Equal(t, meshes, l.Get("stream"))
}

func TestLoad_MirroredNodeFlipsWinding(t *testing.T) {
	doc := triangleDoc(dataURI(triangleBuffer()))
	doc["nodes"] = []any{map[string]any{"mesh": 0, "scale": []float32{-1, 1, 1}}}
	fsys := fstest.MapFS{"m.gltf": {Data: mustJSON(t, doc)}}

	meshes, err := NewLoader(fsys).Load("m.gltf")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2, 1}, meshes[0].Model.Indices())
	assert.Equal(t, [3]float32{-1, 0, 0}, meshes[0].Model.Vertices()[1].Position)
}

func TestLoad_NestedNodesCompose(t *testing.T) {
	doc := triangleDoc(dataURI(triangleBuffer()))
	doc["nodes"] = []any{
		map[string]any{"children": []int{1}, "translation": []float32{0, 5, 0}},
		map[string]any{"name": "child", "mesh": 0, "translation": []float32{1, 0, 0}},
	}
	fsys := fstest.MapFS{"m.gltf": {Data: mustJSON(t, doc)}}

	meshes, err := NewLoader(fsys).Load("m.gltf")
	require.NoError(t, err)
	assert.Equal(t, "child", meshes[0].Name)
	assert.Equal(t, [3]float32{1, 5, 0}, meshes[0].Model.Vertices()[0].Position)
}

func TestLoad_Errors(t *testing.T) {
	buf := dataURI(triangleBuffer())
	cases := map[string]func(doc map[string]any){
		"old version": func(doc map[string]any) { doc["asset"] = map[string]any{"version": "1.0"} },
		"required extension": func(doc map[string]any) {
			doc["extensionsRequired"] = []string{"KHR_draco_mesh_compression"}
		},
		"no position": func(doc map[string]any) {
			prim := doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)
			prim["attributes"] = map[string]int{"NORMAL": 1}
		},
		"accessor past buffer": func(doc map[string]any) {
			doc["accessors"].([]any)[0].(map[string]any)["count"] = 4
		},
		"cyclic nodes": func(doc map[string]any) {
			doc["nodes"] = []any{map[string]any{"children": []int{0}}}
		},
		"bad buffer uri": func(doc map[string]any) {
			doc["buffers"] = []any{map[string]any{"uri": "data:text/plain,abc", "byteLength": 3}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			doc := triangleDoc(buf)
			mutate(doc)
			_, err := NewLoader(fstest.MapFS{"m.gltf": {Data: mustJSON(t, doc)}}).Load("m.gltf")
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader(fstest.MapFS{}).Load("none.gltf")
		assert.Error(t, err)
	})
}

func TestLoad_NoGeometry(t *testing.T) {
	doc := triangleDoc(dataURI(triangleBuffer()))
	prim := doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)
	prim["mode"] = 1 // lines

	_, err := NewLoader(fstest.MapFS{"m.gltf": {Data: mustJSON(t, doc)}}).Load("m.gltf")
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestObjects(t *testing.T) {
	fsys := fstest.MapFS{"models/leaf.gltf": {Data: mustJSON(t, triangleDoc(dataURI(triangleBuffer())))}}
	l := NewLoader(fsys, WithObjectOptions(game_object.WithScale(3, 3, 3)))

	objects, err := l.Objects("models/leaf.gltf", game_object.WithPosition(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, objects, 1)
	o := objects[0]
	assert.Equal(t, "leaf", o.Name())
	assert.Equal(t, "grass", o.Material().Name())
	x, y, z := o.Position()
	assert.Equal(t, [3]float32{0, 1, 0}, [3]float32{x, y, z})
	sx, _, _ := o.Scale()
	assert.Equal(t, float32(3), sx)
}
