package assetdb

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Parsers for the engine's text serialization formats: .meta sidecars
// and the multi-document YAML used by serialized assets. These are
// line scanners, not YAML parsers; the fields they need sit at fixed,
// stable positions in the format.

// ParseMetaGUID extracts the asset GUID from sidecar content. GUIDs
// are 32 lowercase hex characters on a top-level "guid:" line.
func ParseMetaGUID(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "guid:") {
			continue
		}
		guid := strings.TrimSpace(line[len("guid:"):])
		if isGUID(guid) {
			return guid, true
		}
	}
	return "", false
}

// IsFolderMeta reports whether sidecar content describes a folder
// asset rather than a file.
func IsFolderMeta(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "folderAsset:") {
			return strings.TrimSpace(line[len("folderAsset:"):]) == "yes"
		}
	}
	return false
}

func isGUID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// SubDoc is one serialized object document inside a text asset.
type SubDoc struct {
	ClassID int
	LocalID string
	Name    string
}

// docMarkerPrefix starts every object document in serialized text
// assets: "--- !u!<classID> &<localID>".
const docMarkerPrefix = "--- !u!"

// ParseDocMarkers scans serialized text content for object document
// markers and returns one entry per document. The object name is taken
// from the first m_Name field inside the document when present.
// Trailer words after the local id ("stripped") are ignored.
func ParseDocMarkers(content string) []SubDoc {
	var docs []SubDoc
	current := -1

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, docMarkerPrefix) {
			doc, ok := parseMarkerLine(line)
			if !ok {
				current = -1
				continue
			}
			docs = append(docs, doc)
			current = len(docs) - 1
			continue
		}

		if current < 0 || docs[current].Name != "" {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "m_Name:") {
			docs[current].Name = strings.TrimSpace(trimmed[len("m_Name:"):])
		}
	}
	return docs
}

func parseMarkerLine(line string) (SubDoc, bool) {
	rest := line[len(docMarkerPrefix):]
	sp := strings.IndexByte(rest, ' ')
	if sp <= 0 {
		return SubDoc{}, false
	}
	classID, err := strconv.Atoi(rest[:sp])
	if err != nil {
		return SubDoc{}, false
	}

	rest = rest[sp+1:]
	if !strings.HasPrefix(rest, "&") {
		return SubDoc{}, false
	}
	localID := rest[1:]
	if sp := strings.IndexByte(localID, ' '); sp >= 0 {
		localID = localID[:sp]
	}
	if !isLocalID(localID) {
		return SubDoc{}, false
	}

	return SubDoc{ClassID: classID, LocalID: localID}, true
}

// Local ids are signed 64-bit integers in decimal form.
func isLocalID(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// serializedExtensions lists the asset types whose sub-objects are
// addressable from other files and therefore worth indexing. Scene
// files are deliberately absent: objects inside a scene cannot be
// referenced by guid and local id from outside it. Extensions are
// lowercase.
var serializedExtensions = map[string]bool{
	".prefab":             true,
	".mat":                true,
	".asset":              true,
	".controller":         true,
	".overridecontroller": true,
	".anim":               true,
	".mask":               true,
	".physicmaterial":     true,
	".physicsmaterial2d":  true,
	".mixer":              true,
	".rendertexture":      true,
	".spriteatlas":        true,
	".terrainlayer":       true,
	".flare":              true,
	".guiskin":            true,
	".fontsettings":       true,
	".shadervariants":     true,
	".playable":           true,
	".signal":             true,
}

// HasSerializedSubDocs reports whether an asset at path should be
// scanned for sub-object documents.
func HasSerializedSubDocs(path string) bool {
	return serializedExtensions[strings.ToLower(filepath.Ext(path))]
}

// classTypeTags maps serialized class ids to display type tags.
// Unknown ids resolve to the empty tag.
var classTypeTags = map[int]string{
	// Core objects
	1:   "GameObject",
	4:   "Transform",
	224: "RectTransform",

	// Rendering
	20:  "Camera",
	21:  "Material",
	23:  "MeshRenderer",
	28:  "Texture2D",
	33:  "MeshFilter",
	43:  "Mesh",
	48:  "Shader",
	84:  "RenderTexture",
	89:  "Cubemap",
	96:  "TrailRenderer",
	108: "Light",
	120: "LineRenderer",
	124: "Flare",
	137: "SkinnedMeshRenderer",
	205: "LODGroup",
	212: "SpriteRenderer",
	213: "Sprite",
	222: "CanvasRenderer",
	223: "Canvas",
	331: "SpriteMask",

	// Scripting
	114: "MonoBehaviour",
	115: "MonoScript",
	49:  "TextAsset",

	// Physics
	54:  "Rigidbody",
	64:  "MeshCollider",
	65:  "BoxCollider",
	135: "SphereCollider",
	136: "CapsuleCollider",
	143: "CharacterController",

	// Animation
	74:   "AnimationClip",
	90:   "Avatar",
	91:   "AnimatorController",
	95:   "Animator",
	221:  "AnimatorOverrideController",
	1102: "AnimatorState",
	1107: "AnimatorStateMachine",
	320:  "PlayableDirector",

	// Audio and video
	82:  "AudioSource",
	83:  "AudioClip",
	240: "AudioMixer",
	328: "VideoPlayer",
	329: "VideoClip",

	// Text and UI assets
	102: "TextMesh",
	128: "Font",

	// Effects and terrain
	156: "TerrainData",
	198: "ParticleSystem",
	199: "ParticleSystemRenderer",

	// Structure
	1001:       "PrefabInstance",
	687078895:  "SpriteAtlas",
	1660057539: "SceneRoots",
}

// ClassTypeTag returns the display tag for a serialized class id, or
// "" when the id is not in the table.
func ClassTypeTag(classID int) string {
	return classTypeTags[classID]
}

// assetTypeTags maps primary-file extensions to the type tag of the
// asset's main object. Extensions are lowercase.
var assetTypeTags = map[string]string{
	// Serialized engine assets
	".prefab":             "GameObject",
	".unity":              "SceneAsset",
	".mat":                "Material",
	".asset":              "ScriptableObject",
	".controller":         "AnimatorController",
	".overridecontroller": "AnimatorOverrideController",
	".anim":               "AnimationClip",
	".mask":               "AvatarMask",
	".physicmaterial":     "PhysicMaterial",
	".physicsmaterial2d":  "PhysicsMaterial2D",
	".mixer":              "AudioMixer",
	".rendertexture":      "RenderTexture",
	".spriteatlas":        "SpriteAtlas",
	".terrainlayer":       "TerrainLayer",
	".flare":              "Flare",
	".guiskin":            "GUISkin",
	".fontsettings":       "Font",
	".playable":           "PlayableAsset",
	".signal":             "SignalAsset",
	".cubemap":            "Cubemap",

	// Code
	".cs":     "MonoScript",
	".asmdef": "AssemblyDefinitionAsset",
	".asmref": "AssemblyDefinitionReferenceAsset",

	// Shaders
	".shader":      "Shader",
	".compute":     "ComputeShader",
	".shadergraph": "Shader",

	// Textures
	".png":  "Texture2D",
	".jpg":  "Texture2D",
	".jpeg": "Texture2D",
	".tga":  "Texture2D",
	".psd":  "Texture2D",
	".exr":  "Texture2D",
	".hdr":  "Texture2D",
	".bmp":  "Texture2D",
	".gif":  "Texture2D",
	".tif":  "Texture2D",
	".tiff": "Texture2D",

	// Models import as object hierarchies
	".fbx":   "GameObject",
	".obj":   "GameObject",
	".blend": "GameObject",
	".dae":   "GameObject",

	// Audio
	".wav":  "AudioClip",
	".mp3":  "AudioClip",
	".ogg":  "AudioClip",
	".aiff": "AudioClip",

	// Video
	".mp4":  "VideoClip",
	".mov":  "VideoClip",
	".webm": "VideoClip",

	// Fonts
	".ttf": "Font",
	".otf": "Font",

	// Plain data
	".txt":   "TextAsset",
	".json":  "TextAsset",
	".xml":   "TextAsset",
	".bytes": "TextAsset",
}

// TypeTagForAsset returns the main-object type tag for an asset path.
// Folders and unknown extensions are container-style DefaultAssets.
func TypeTagForAsset(path string, folder bool) string {
	if folder {
		return "Folder"
	}
	if tag, ok := assetTypeTags[strings.ToLower(filepath.Ext(path))]; ok {
		return tag
	}
	return "DefaultAsset"
}
