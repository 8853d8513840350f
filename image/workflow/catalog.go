package workflow

// Role classifies what a node does in a generation graph.
type Role int

const (
	RoleOther Role = iota
	RoleCheckpoint
	RoleEncoder
	RoleLatent
	RoleSampler
	RoleDecode
	RoleSave
	// RoleRemote marks hosted generation nodes that produce an image without a sampler.
	RoleRemote
)

type NodeSpec struct {
	Outputs []string
	Role    Role
	// Credential names the API key a remote node needs.
	Credential string
}

// Catalog lists the node classes the adapter knows the outputs of.
var Catalog = map[string]NodeSpec{
	"CheckpointLoaderSimple":  {Outputs: []string{"MODEL", "CLIP", "VAE"}, Role: RoleCheckpoint},
	"CLIPTextEncode":          {Outputs: []string{"CONDITIONING"}, Role: RoleEncoder},
	"CLIPSetLastLayer":        {Outputs: []string{"CLIP"}},
	"VAELoader":               {Outputs: []string{"VAE"}},
	"EmptyLatentImage":        {Outputs: []string{"LATENT"}, Role: RoleLatent},
	"EmptySD3LatentImage":     {Outputs: []string{"LATENT"}, Role: RoleLatent},
	"KSampler":                {Outputs: []string{"LATENT"}, Role: RoleSampler},
	"KSamplerAdvanced":        {Outputs: []string{"LATENT"}, Role: RoleSampler},
	"VAEDecode":               {Outputs: []string{"IMAGE"}, Role: RoleDecode},
	"VAEDecodeTiled":          {Outputs: []string{"IMAGE"}, Role: RoleDecode},
	"VAEEncode":               {Outputs: []string{"LATENT"}},
	"SaveImage":               {Role: RoleSave},
	"PreviewImage":            {},
	"LoraLoader":              {Outputs: []string{"MODEL", "CLIP"}},
	"LoraLoaderModelOnly":     {Outputs: []string{"MODEL"}},
	"LoadImage":               {Outputs: []string{"IMAGE", "MASK"}},
	"ControlNetLoader":        {Outputs: []string{"CONTROL_NET"}},
	"ControlNetApplyAdvanced": {Outputs: []string{"CONDITIONING", "CONDITIONING"}},
	"FaceRestoreModelLoader":  {Outputs: []string{"FACERESTORE_MODEL"}},
	"FaceRestoreCFWithModel":  {Outputs: []string{"IMAGE"}},
	"UpscaleModelLoader":      {Outputs: []string{"UPSCALE_MODEL"}},
	"ImageUpscaleWithModel":   {Outputs: []string{"IMAGE"}},
	"ImageScale":              {Outputs: []string{"IMAGE"}},
	"ImageScaleBy":            {Outputs: []string{"IMAGE"}},
	"LatentUpscale":           {Outputs: []string{"LATENT"}},
	"LatentUpscaleBy":         {Outputs: []string{"LATENT"}},
	"OpenAIDalle2":            {Outputs: []string{"IMAGE"}, Role: RoleRemote, Credential: "openai"},
	"OpenAIDalle3":            {Outputs: []string{"IMAGE"}, Role: RoleRemote, Credential: "openai"},
	"FluxProImageNode":        {Outputs: []string{"IMAGE"}, Role: RoleRemote, Credential: "bfl"},
	"FluxProUltraImageNode":   {Outputs: []string{"IMAGE"}, Role: RoleRemote, Credential: "bfl"},
	"IdeogramV1":              {Outputs: []string{"IMAGE"}, Role: RoleRemote, Credential: "ideogram"},
	"IdeogramV2":              {Outputs: []string{"IMAGE"}, Role: RoleRemote, Credential: "ideogram"},
	"IdeogramV3":              {Outputs: []string{"IMAGE"}, Role: RoleRemote, Credential: "ideogram"},
}

func roleOf(classType string) Role {
	return Catalog[classType].Role
}

// isGenerator reports whether a node produces images from conditioning.
func isGenerator(classType string) bool {
	role := roleOf(classType)
	return role == RoleSampler || role == RoleRemote
}
