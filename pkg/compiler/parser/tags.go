package parser

import "strings"

func makeSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, s := range strings.Split(list, ",") {
		set[s] = true
	}
	return set
}

var htmlTags = makeSet("html,body,base,head,link,meta,style,title,address,article,aside,footer," +
	"header,hgroup,h1,h2,h3,h4,h5,h6,nav,section,div,dd,dl,dt,figcaption," +
	"figure,picture,hr,img,li,main,ol,p,pre,ul,a,b,abbr,bdi,bdo,br,cite,code," +
	"data,dfn,em,i,kbd,mark,q,rp,rt,ruby,s,samp,small,span,strong,sub,sup," +
	"time,u,var,wbr,area,audio,map,track,video,embed,object,param,source," +
	"canvas,script,noscript,del,ins,caption,col,colgroup,table,thead,tbody,td," +
	"th,tr,button,datalist,fieldset,form,input,label,legend,meter,optgroup," +
	"option,output,progress,select,textarea,details,dialog,menu," +
	"summary,template,blockquote,iframe,tfoot,search")

var svgTags = makeSet("svg,animate,animateMotion,animateTransform,circle,clipPath,color-profile," +
	"defs,desc,discard,ellipse,feBlend,feColorMatrix,feComponentTransfer," +
	"feComposite,feConvolveMatrix,feDiffuseLighting,feDisplacementMap," +
	"feDistantLight,feDropShadow,feFlood,feFuncA,feFuncB,feFuncG,feFuncR," +
	"feGaussianBlur,feImage,feMerge,feMergeNode,feMorphology,feOffset," +
	"fePointLight,feSpecularLighting,feSpotLight,feTile,feTurbulence,filter," +
	"foreignObject,g,hatch,hatchpath,image,line,linearGradient,marker,mask," +
	"mesh,meshgradient,meshpatch,meshrow,metadata,mpath,path,pattern," +
	"polygon,polyline,radialGradient,rect,set,solidcolor,stop,switch,symbol," +
	"text,textPath,title,tspan,unknown,use,view")

var mathTags = makeSet("annotation,annotation-xml,maction,maligngroup,malignmark,math,menclose," +
	"merror,mfenced,mfrac,mfraction,mglyph,mi,mlabeledtr,mlongdiv," +
	"mmultiscripts,mn,mo,mover,mpadded,mphantom,mprescripts,mroot,mrow,ms," +
	"mscarries,mscarry,msgroup,msline,mspace,msqrt,msrow,mstack,mstyle,msub," +
	"msubsup,msup,mtable,mtd,mtext,mtr,munder,munderover,none,semantics")

var voidTags = makeSet("area,base,br,col,embed,hr,img,input,link,meta,param,source,track,wbr")

// rawTextTags hold content that is never parsed as markup.
var rawTextTags = makeSet("script,style,iframe,noscript,xmp")

// rcdataTags hold text with entities but no child elements.
var rcdataTags = makeSet("textarea,title")

var builtInComponents = makeSet("Teleport,teleport,Suspense,suspense,KeepAlive,keep-alive,keepalive," +
	"Transition,transition,TransitionGroup,transition-group,BaseTransition,base-transition")

// implicitlyClosedBy maps an open element to the start tags that close it.
var implicitlyClosedBy = map[string]map[string]bool{
	"li":     makeSet("li"),
	"dt":     makeSet("dt,dd"),
	"dd":     makeSet("dt,dd"),
	"option": makeSet("option,optgroup"),
	"tr":     makeSet("tr"),
	"td":     makeSet("td,th,tr"),
	"th":     makeSet("td,th,tr"),
}

func isNativeTag(tag string) bool {
	return htmlTags[tag] || svgTags[tag] || mathTags[tag]
}

// IsBuiltInComponent reports whether tag names a component the vue runtime
// ships, in either PascalCase or kebab-case.
func IsBuiltInComponent(tag string) bool {
	return builtInComponents[tag]
}

// IsVoidTag reports whether tag never has children or an end tag.
func IsVoidTag(tag string) bool {
	return voidTags[strings.ToLower(tag)]
}
